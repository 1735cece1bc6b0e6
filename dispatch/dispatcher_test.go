package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"jobscout/models"
)

type fakeSurface struct {
	saved    map[models.ItemID]bool
	stateErr error
	saveErr  error
	toggles  int
}

func (f *fakeSurface) BookmarkState(_ context.Context, item models.ListingItem) (bool, error) {
	if f.stateErr != nil {
		return false, f.stateErr
	}
	return f.saved[item.ID], nil
}

func (f *fakeSurface) ToggleBookmark(_ context.Context, item models.ListingItem) error {
	f.toggles++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[item.ID] = !f.saved[item.ID]
	return nil
}

func TestBookmark(t *testing.T) {
	tests := []struct {
		name        string
		surface     *fakeSurface
		want        models.BookmarkResult
		wantToggles int
		wantSaved   bool
	}{
		{
			name:        "unsaved becomes saved",
			surface:     &fakeSurface{saved: map[models.ItemID]bool{}},
			want:        models.BookmarkSaved,
			wantToggles: 1,
			wantSaved:   true,
		},
		{
			name:        "already saved is not toggled",
			surface:     &fakeSurface{saved: map[models.ItemID]bool{"123": true}},
			want:        models.BookmarkAlreadySaved,
			wantToggles: 0,
			wantSaved:   true,
		},
		{
			name:        "state read error",
			surface:     &fakeSurface{saved: map[models.ItemID]bool{}, stateErr: errors.New("element not found")},
			want:        models.BookmarkFailed,
			wantToggles: 0,
		},
		{
			name:        "toggle error",
			surface:     &fakeSurface{saved: map[models.ItemID]bool{}, saveErr: errors.New("click intercepted")},
			want:        models.BookmarkFailed,
			wantToggles: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(tt.surface, nil)
			got := d.Bookmark(context.Background(), models.ListingItem{ID: "123"})
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantToggles, tt.surface.toggles)
			require.Equal(t, tt.wantSaved, tt.surface.saved["123"])
		})
	}
}

func TestBookmarkTwiceIsIdempotent(t *testing.T) {
	surface := &fakeSurface{saved: map[models.ItemID]bool{}}
	d := NewDispatcher(surface, nil)
	item := models.ListingItem{ID: "123"}

	require.Equal(t, models.BookmarkSaved, d.Bookmark(context.Background(), item))
	require.Equal(t, models.BookmarkAlreadySaved, d.Bookmark(context.Background(), item))
	require.Equal(t, 1, surface.toggles)
	require.True(t, surface.saved["123"])
}
