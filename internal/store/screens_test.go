package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tkoskin/praisecast/internal/domain"
)

func TestScreens_CreateAndGet(t *testing.T) {
	req := require.New(t)
	s := NewScreens(setupTestDB(t))

	rec, err := s.Create("owner-1", "Lobby TV", domain.DisplayTypeViewer, map[string]string{"theme": "dark"})
	req.NoError(err)
	req.NotEmpty(rec.ScreenID)

	got, err := s.Get("owner-1", rec.ScreenID)
	req.NoError(err)
	req.Equal("Lobby TV", got.Name)
	req.Equal(domain.DisplayTypeViewer, got.DisplayType)
	req.Equal("dark", got.Config["theme"])
}

func TestScreens_InvalidDisplayTypeRejected(t *testing.T) {
	req := require.New(t)
	s := NewScreens(setupTestDB(t))

	_, err := s.Create("owner-1", "Lobby TV", "billboard", nil)
	req.ErrorIs(err, ErrInvalidDisplayType)
}

func TestScreens_UnknownPairIsScreenNotFound(t *testing.T) {
	req := require.New(t)
	s := NewScreens(setupTestDB(t))

	rec, err := s.Create("owner-1", "Stage", domain.DisplayTypeStage, nil)
	req.NoError(err)

	// Wrong owner or wrong screen id both miss; the pair is the key.
	_, err = s.Get("owner-2", rec.ScreenID)
	req.ErrorIs(err, domain.ErrScreenNotFound)
	_, err = s.Get("owner-1", "no-such-screen")
	req.ErrorIs(err, domain.ErrScreenNotFound)
}

func TestScreens_ListAndDelete(t *testing.T) {
	req := require.New(t)
	s := NewScreens(setupTestDB(t))

	a, err := s.Create("owner-1", "Lobby", domain.DisplayTypeViewer, nil)
	req.NoError(err)
	_, err = s.Create("owner-1", "Stage", domain.DisplayTypeStage, nil)
	req.NoError(err)
	_, err = s.Create("owner-2", "Other", domain.DisplayTypeOverlay, nil)
	req.NoError(err)

	recs, err := s.ListByOwner("owner-1")
	req.NoError(err)
	req.Len(recs, 2)

	req.NoError(s.Delete("owner-1", a.ScreenID))
	recs, err = s.ListByOwner("owner-1")
	req.NoError(err)
	req.Len(recs, 1)
	req.Equal("Stage", recs[0].Name)
}
