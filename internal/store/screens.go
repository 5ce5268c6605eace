package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/domain"
)

const screenPrefix = "screen:"

var ErrInvalidDisplayType = errors.New("invalid display type")

// Screens holds remote screen registrations. The (owner, screen) pair
// is the public identifier unattended displays poll with; it carries no
// PIN and grants no write access to anything.
type Screens struct {
	db *badger.DB
}

func NewScreens(db *badger.DB) *Screens {
	return &Screens{db: db}
}

func screenKey(ownerID, screenID string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", screenPrefix, ownerID, screenID)
}

// Create registers a screen for an owner. The ScreenID is generated
// here; the caller only picks a name and display type.
func (s *Screens) Create(ownerID, name string, displayType domain.DisplayType, config map[string]string) (domain.RemoteScreen, error) {
	if !displayType.Valid() {
		return domain.RemoteScreen{}, ErrInvalidDisplayType
	}
	rec := domain.RemoteScreen{
		OwnerID:     ownerID,
		ScreenID:    uuid.NewString(),
		Name:        name,
		DisplayType: displayType,
		Config:      config,
		CreatedAt:   time.Now(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return domain.RemoteScreen{}, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(screenKey(ownerID, rec.ScreenID), data)
	})
	if err != nil {
		return domain.RemoteScreen{}, err
	}
	log.Info().Str("module", "store.screens").Str("owner", ownerID).Str("screen", rec.ScreenID).Str("type", string(displayType)).Msg("screen registered")
	return rec, nil
}

func (s *Screens) Get(ownerID, screenID string) (domain.RemoteScreen, error) {
	var rec domain.RemoteScreen
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(screenKey(ownerID, screenID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.RemoteScreen{}, domain.ErrScreenNotFound
	}
	if err != nil {
		return domain.RemoteScreen{}, err
	}
	return rec, nil
}

func (s *Screens) ListByOwner(ownerID string) ([]domain.RemoteScreen, error) {
	prefix := []byte(screenPrefix + ownerID + ":")
	var out []domain.RemoteScreen
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var rec domain.RemoteScreen
				if err := json.Unmarshal(v, &rec); err != nil {
					return fmt.Errorf("corrupt screen record: %w", err)
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Screens) Delete(ownerID, screenID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(screenKey(ownerID, screenID))
	})
}
