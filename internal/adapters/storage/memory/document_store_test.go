package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-board/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-board/internal/domain"
)

func TestDocumentStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store := memory.NewDocumentStore(memory.WithClock(func() time.Time { return ts }))

	msg, err := store.CreateDocument(ctx, "messages", &domain.NewDocument{
		ID:     domain.UniqueID,
		Fields: domain.MessageFields{Content: "hi", UserID: "u1", Username: "Ana"},
		Read:   []domain.Permission{domain.ReadAny()},
		Write:  []domain.Permission{domain.WriteUser("u1")},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, ts, msg.CreatedAt)
	assert.Equal(t, []domain.Permission{`read("any")`, `write("user:u1")`}, msg.Permissions)

	list, err := store.ListDocuments(ctx, "messages")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hi", list[0].Content)

	// returned values are copies
	list[0].Content = "changed"
	again, _ := store.ListDocuments(ctx, "messages")
	assert.Equal(t, "hi", again[0].Content)

	other, err := store.ListDocuments(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDocumentStore_ExplicitIDConflict(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()

	doc := &domain.NewDocument{ID: "fixed", Fields: domain.MessageFields{Content: "a"}}
	_, err := store.CreateDocument(ctx, "messages", doc)
	require.NoError(t, err)

	_, err = store.CreateDocument(ctx, "messages", doc)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
