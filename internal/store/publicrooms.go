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

const publicRoomPrefix = "public-room:"

// PublicRooms is the durable set of named aliases. Slug uniqueness is
// enforced within one owner's records only; two different owners may
// both run a "youth-night". Cross-owner slug collisions are resolved at
// lookup time by most recent activation.
type PublicRooms struct {
	db *badger.DB
}

func NewPublicRooms(db *badger.DB) *PublicRooms {
	return &PublicRooms{db: db}
}

func publicRoomKey(ownerID, id string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", publicRoomPrefix, ownerID, id)
}

// Create derives the slug from name and stores the record. An input
// that slugifies to nothing is rejected here, at creation time, never
// silently accepted.
func (s *PublicRooms) Create(ownerID, name string) (domain.PublicRoom, error) {
	slug := domain.Slugify(name)
	if slug == "" {
		return domain.PublicRoom{}, domain.ErrEmptySlug
	}

	existing, err := s.ListByOwner(ownerID)
	if err != nil {
		return domain.PublicRoom{}, err
	}
	for _, rec := range existing {
		if rec.Slug == slug {
			return domain.PublicRoom{}, domain.ErrDuplicateSlug
		}
	}

	rec := domain.PublicRoom{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now(),
	}
	if err := s.put(rec); err != nil {
		return domain.PublicRoom{}, err
	}
	log.Info().Str("module", "store.publicrooms").Str("owner", ownerID).Str("slug", slug).Msg("public room created")
	return rec, nil
}

func (s *PublicRooms) Get(ownerID, id string) (domain.PublicRoom, error) {
	var rec domain.PublicRoom
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(publicRoomKey(ownerID, id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.PublicRoom{}, domain.ErrPublicRoomNotFound
	}
	if err != nil {
		return domain.PublicRoom{}, err
	}
	return rec, nil
}

func (s *PublicRooms) ListByOwner(ownerID string) ([]domain.PublicRoom, error) {
	return s.scan([]byte(publicRoomPrefix + ownerID + ":"))
}

func (s *PublicRooms) Delete(ownerID, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(publicRoomKey(ownerID, id))
	})
}

// SetActive points the alias at the room the owner just started
// presenting in. A previous active PIN is overwritten, never stacked.
func (s *PublicRooms) SetActive(ownerID, id string, pin domain.PIN) error {
	rec, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}
	rec.ActivePIN = pin
	rec.ActivatedAt = time.Now()
	if err := s.put(rec); err != nil {
		return err
	}
	log.Info().Str("module", "store.publicrooms").Str("slug", rec.Slug).Str("pin", string(pin)).Msg("public room activated")
	return nil
}

// ClearActive marks the alias offline. Idempotent under repeated stop
// calls, including for records that no longer exist.
func (s *PublicRooms) ClearActive(ownerID, id string) error {
	rec, err := s.Get(ownerID, id)
	if errors.Is(err, domain.ErrPublicRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !rec.Online() {
		return nil
	}
	rec.ActivePIN = ""
	rec.ActivatedAt = time.Time{}
	if err := s.put(rec); err != nil {
		return err
	}
	log.Info().Str("module", "store.publicrooms").Str("slug", rec.Slug).Msg("public room deactivated")
	return nil
}

// ResolveBySlug maps a slug to the active PIN of whichever matching
// alias was most recently activated. ErrRoomOffline means the alias
// exists but nobody is presenting; callers show a waiting state for
// that, not an error.
func (s *PublicRooms) ResolveBySlug(slug string) (domain.PIN, error) {
	all, err := s.scan([]byte(publicRoomPrefix))
	if err != nil {
		return "", err
	}
	var best *domain.PublicRoom
	found := false
	for i, rec := range all {
		if rec.Slug != slug {
			continue
		}
		found = true
		if !rec.Online() {
			continue
		}
		if best == nil || rec.ActivatedAt.After(best.ActivatedAt) {
			best = &all[i]
		}
	}
	if !found {
		return "", domain.ErrPublicRoomNotFound
	}
	if best == nil {
		return "", domain.ErrRoomOffline
	}
	return best.ActivePIN, nil
}

func (s *PublicRooms) put(rec domain.PublicRoom) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(publicRoomKey(rec.OwnerID, rec.ID), data)
	})
}

func (s *PublicRooms) scan(prefix []byte) ([]domain.PublicRoom, error) {
	var out []domain.PublicRoom
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var rec domain.PublicRoom
				if err := json.Unmarshal(v, &rec); err != nil {
					return fmt.Errorf("corrupt public room record: %w", err)
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
