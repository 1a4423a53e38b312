package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"bourse/internal/common"

	"github.com/cockroachdb/pebble"
)

// PebbleStore persists missions in a Pebble database so pending settlements
// survive a restart of the simulation.
type PebbleStore struct {
	db *pebble.DB
}

func OpenPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func (s *PebbleStore) Put(agreement common.Agreement) error {
	data, err := json.Marshal(agreement)
	if err != nil {
		return fmt.Errorf("failed to marshal mission: %w", err)
	}
	if err := s.db.Set(missionKey(agreement), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save mission: %w", err)
	}
	return nil
}

func (s *PebbleStore) Due(day, lag int) ([]common.Agreement, error) {
	if day-lag < 0 {
		return nil, nil
	}
	return s.scan(dateBound(day - lag))
}

func (s *PebbleStore) Pending() ([]common.Agreement, error) {
	return s.scan(prefixEnd([]byte(missionPrefix)))
}

func (s *PebbleStore) Delete(agreement common.Agreement) error {
	key := missionKey(agreement)
	_, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrMissionNotFound, agreement.UUID)
	}
	if err != nil {
		return fmt.Errorf("failed to get mission: %w", err)
	}
	if err := closer.Close(); err != nil {
		return err
	}
	if err := s.db.Delete(key, pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete mission: %w", err)
	}
	return nil
}

// scan returns missions with keys in [missionPrefix, upper).
func (s *PebbleStore) scan(upper []byte) ([]common.Agreement, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(missionPrefix),
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}

	var missions []common.Agreement
	for iter.First(); iter.Valid(); iter.Next() {
		var agreement common.Agreement
		if err := json.Unmarshal(iter.Value(), &agreement); err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("failed to unmarshal mission: %w", err)
		}
		missions = append(missions, agreement)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close iterator: %w", err)
	}
	return missions, nil
}

// prefixEnd returns the first key after every key starting with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
