package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/PabloGalante/farum-board/internal/domain"
)

// Store keeps message documents in a local SQLite file.
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewStore creates or opens the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	store := &Store{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT NOT NULL,
		collection_id TEXT NOT NULL,
		content TEXT NOT NULL,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		permissions_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (collection_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(collection_id, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) CreateDocument(ctx context.Context, collectionID domain.CollectionID, doc *domain.NewDocument) (*domain.Message, error) {
	if doc == nil {
		return nil, fmt.Errorf("sqlite CreateDocument: document is required")
	}

	id := doc.ID
	if id == "" || id == domain.UniqueID {
		id = uuid.NewString()
	}

	perms := doc.Permissions()
	permsJSON, err := json.Marshal(perms)
	if err != nil {
		return nil, fmt.Errorf("encode permissions: %w", err)
	}

	createdAt := s.now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, collection_id, content, user_id, username, permissions_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, string(collectionID), doc.Fields.Content, string(doc.Fields.UserID), doc.Fields.Username,
		string(permsJSON), createdAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("sqlite CreateDocument %s: %w", id, domain.ErrConflict)
		}
		return nil, fmt.Errorf("sqlite CreateDocument: %w", err)
	}

	return &domain.Message{
		ID:          domain.MessageID(id),
		Content:     doc.Fields.Content,
		AuthorID:    doc.Fields.UserID,
		AuthorName:  doc.Fields.Username,
		CreatedAt:   createdAt,
		Permissions: perms,
	}, nil
}

func (s *Store) ListDocuments(ctx context.Context, collectionID domain.CollectionID) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, user_id, username, permissions_json, created_at
		FROM documents
		WHERE collection_id = ?
		ORDER BY created_at DESC`, string(collectionID))
	if err != nil {
		return nil, fmt.Errorf("sqlite ListDocuments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var (
			id, content, userID, username, permsJSON string
			createdAt                                int64
		)
		if err := rows.Scan(&id, &content, &userID, &username, &permsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		var perms []domain.Permission
		if err := json.Unmarshal([]byte(permsJSON), &perms); err != nil {
			return nil, fmt.Errorf("decode permissions of %s: %w", id, err)
		}

		out = append(out, &domain.Message{
			ID:          domain.MessageID(id),
			Content:     content,
			AuthorID:    domain.UserID(userID),
			AuthorName:  username,
			CreatedAt:   time.Unix(0, createdAt).UTC(),
			Permissions: perms,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite ListDocuments: %w", err)
	}
	return out, nil
}
