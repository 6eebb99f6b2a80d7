package events

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/backend/internal/models"
)

func testEvent() *models.EventConfig {
	return &models.EventConfig{
		Name:      "Summer Hack",
		EndDate:   "2099-12-31",
		BannerURL: "https://cdn.example.com/banner.png",
		Fields: []models.FieldSpec{
			{Question: "Team name?", Type: models.FieldText, Required: true},
			{Question: "Poster?", Type: models.FieldImage, Required: false},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoEvent)

	want := testEvent()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStoreSaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	store := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testEvent()))

	second := testEvent()
	second.Name = "Winter Hack"
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Winter Hack", got.Name)
}

func TestGate(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, Gate(nil, now), ErrNoEvent)

	open := &models.EventConfig{Name: "e", EndDate: "2026-06-16"}
	assert.NoError(t, Gate(open, now))

	closed := &models.EventConfig{Name: "e", EndDate: "2026-06-14"}
	assert.ErrorIs(t, Gate(closed, now), ErrEventClosed)

	bad := &models.EventConfig{Name: "e", EndDate: "June 14th"}
	err := Gate(bad, now)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEventClosed)
}
