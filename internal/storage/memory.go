package storage

import (
	"fmt"

	"bourse/internal/common"

	"github.com/tidwall/btree"
)

// MemoryStore keeps missions in memory.
type MemoryStore struct {
	missions btree.Map[string, common.Agreement]
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Put(agreement common.Agreement) error {
	s.missions.Set(string(missionKey(agreement)), agreement)
	return nil
}

func (s *MemoryStore) Due(day, lag int) ([]common.Agreement, error) {
	var due []common.Agreement
	if day-lag < 0 {
		return due, nil
	}
	bound := string(dateBound(day - lag))
	s.missions.Scan(func(key string, agreement common.Agreement) bool {
		if key >= bound {
			return false
		}
		due = append(due, agreement)
		return true
	})
	return due, nil
}

func (s *MemoryStore) Delete(agreement common.Agreement) error {
	if _, ok := s.missions.Delete(string(missionKey(agreement))); !ok {
		return fmt.Errorf("%w: %s", ErrMissionNotFound, agreement.UUID)
	}
	return nil
}

func (s *MemoryStore) Pending() ([]common.Agreement, error) {
	return s.missions.Values(), nil
}

func (s *MemoryStore) Close() error { return nil }
