package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/PabloGalante/farum-board/internal/adapters/appwrite"
	firestorestore "github.com/PabloGalante/farum-board/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/farum-board/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/farum-board/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/farum-board/internal/config"
	"github.com/PabloGalante/farum-board/internal/domain"
	"github.com/PabloGalante/farum-board/internal/observability"
)

type backends struct {
	identity domain.IdentityService
	store    domain.DocumentStore
	closers  []func() error
}

func (b *backends) close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	log := observability.WithFields("backend", cfg.Backend, "storage", cfg.Storage)
	b := &backends{}

	switch cfg.Backend {
	case config.BackendAppwrite:
		log.Info("using appwrite backend", "endpoint", cfg.Appwrite.Endpoint, "project_id", cfg.Appwrite.ProjectID)
		client, err := appwrite.NewClient(appwrite.Config{
			Endpoint:   cfg.Appwrite.Endpoint,
			ProjectID:  cfg.Appwrite.ProjectID,
			DatabaseID: cfg.Appwrite.DatabaseID,
			Timeout:    cfg.Appwrite.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init appwrite client: %w", err)
		}

		// 1 client, implements both ports
		b.identity = client
		b.store = client

	default:
		log.Info("using in-memory identity")
		b.identity = memstore.NewIdentityService()
	}

	switch cfg.Storage {
	case config.StorageFirestore:
		log.Info("using firestore storage", "project_id", cfg.Firestore.ProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init firestore store: %w", err)
		}
		b.store = fs
		b.closers = append(b.closers, fs.Close)

	case config.StorageSQLite:
		db, err := sqlitestore.NewStore(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		log.Info("using sqlite storage", "path", db.Path())
		b.store = db
		b.closers = append(b.closers, db.Close)

	case config.StorageMemory:
		log.Info("using in-memory storage")
		b.store = memstore.NewDocumentStore()

	default:
		if b.store == nil {
			log.Info("using in-memory storage")
			b.store = memstore.NewDocumentStore()
		}
	}

	return b, nil
}
