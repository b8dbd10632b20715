package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Backend string

const (
	BackendAppwrite Backend = "appwrite"
	BackendMemory   Backend = "memory"
)

type Storage string

const (
	// StorageDefault keeps messages in the same backend as identities.
	StorageDefault   Storage = ""
	StorageMemory    Storage = "memory"
	StorageFirestore Storage = "firestore"
	StorageSQLite    Storage = "sqlite"
)

// Defaults of the hosted board.
const (
	DefaultEndpoint     = "https://cloud.appwrite.io/v1"
	DefaultDatabaseID   = "6940fa1f000ba38eed91"
	DefaultCollectionID = "694103b40039a4f17d4c"
)

type Config struct {
	Backend Backend `yaml:"backend"`
	Storage Storage `yaml:"storage"`

	Appwrite  AppwriteConfig  `yaml:"appwrite"`
	Firestore FirestoreConfig `yaml:"firestore"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Feed      FeedConfig      `yaml:"feed"`
	Log       LogConfig       `yaml:"log"`
}

type AppwriteConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	ProjectID    string        `yaml:"project_id"`
	DatabaseID   string        `yaml:"database_id"`
	CollectionID string        `yaml:"collection_id"`
	Timeout      time.Duration `yaml:"timeout"`
}

type FirestoreConfig struct {
	ProjectID  string `yaml:"project_id"`
	Collection string `yaml:"collection"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// FeedConfig tunes feed loading. PollInterval 0 disables auto refresh.
type FeedConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Backend: BackendAppwrite,
		Storage: StorageDefault,
		Appwrite: AppwriteConfig{
			Endpoint:     DefaultEndpoint,
			DatabaseID:   DefaultDatabaseID,
			CollectionID: DefaultCollectionID,
			Timeout:      30 * time.Second,
		},
		Firestore: FirestoreConfig{
			Collection: "messages",
		},
		SQLite: SQLiteConfig{
			Path: "board.db",
		},
		Feed: FeedConfig{
			RetryAttempts: 3,
			RetryBackoff:  200 * time.Millisecond,
		},
		Log: LogConfig{
			File:  "board.log",
			Level: "info",
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Override changes a loaded config before it is validated, e.g. from flags.
type Override func(*Config)

// Load builds the config from defaults, then the YAML file at path (if any),
// then BOARD_* env vars, then the overrides, and validates the result.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	for _, o := range overrides {
		o(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Backend = Backend(getEnv("BOARD_BACKEND", string(c.Backend)))
	c.Storage = Storage(getEnv("BOARD_STORAGE", string(c.Storage)))

	c.Appwrite.Endpoint = getEnv("BOARD_APPWRITE_ENDPOINT", c.Appwrite.Endpoint)
	c.Appwrite.ProjectID = getEnv("BOARD_APPWRITE_PROJECT", c.Appwrite.ProjectID)
	c.Appwrite.DatabaseID = getEnv("BOARD_APPWRITE_DATABASE", c.Appwrite.DatabaseID)
	c.Appwrite.CollectionID = getEnv("BOARD_APPWRITE_COLLECTION", c.Appwrite.CollectionID)
	c.Appwrite.Timeout = getDurationEnv("BOARD_APPWRITE_TIMEOUT", c.Appwrite.Timeout)

	c.Firestore.ProjectID = getEnv("BOARD_GCP_PROJECT", c.Firestore.ProjectID)
	c.Firestore.Collection = getEnv("BOARD_FIRESTORE_COLLECTION", c.Firestore.Collection)

	c.SQLite.Path = getEnv("BOARD_SQLITE_PATH", c.SQLite.Path)

	c.Feed.RetryAttempts = getIntEnv("BOARD_FEED_RETRY_ATTEMPTS", c.Feed.RetryAttempts)
	c.Feed.RetryBackoff = getDurationEnv("BOARD_FEED_RETRY_BACKOFF", c.Feed.RetryBackoff)
	c.Feed.PollInterval = getDurationEnv("BOARD_FEED_POLL_INTERVAL", c.Feed.PollInterval)

	c.Log.File = getEnv("BOARD_LOG_FILE", c.Log.File)
	c.Log.Level = getEnv("BOARD_LOG_LEVEL", c.Log.Level)
}

// Validate checks the combination of backend and storage settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAppwrite:
		if c.Appwrite.ProjectID == "" {
			return fmt.Errorf("appwrite project id must be set (BOARD_APPWRITE_PROJECT)")
		}
		if c.Appwrite.Endpoint == "" {
			return fmt.Errorf("appwrite endpoint must be set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Storage {
	case StorageDefault, StorageMemory:
	case StorageFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("BOARD_GCP_PROJECT must be set for firestore storage")
		}
	case StorageSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path must be set for sqlite storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	if c.Feed.RetryAttempts < 1 {
		c.Feed.RetryAttempts = 1
	}
	return nil
}

// CollectionID is the collection the controller reads and writes.
func (c *Config) CollectionID() string {
	switch c.Storage {
	case StorageFirestore:
		return c.Firestore.Collection
	case StorageDefault:
		if c.Backend == BackendAppwrite {
			return c.Appwrite.CollectionID
		}
	}
	return "messages"
}
