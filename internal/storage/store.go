package storage

import (
	"encoding/binary"
	"errors"

	"bourse/internal/common"
)

var ErrMissionNotFound = errors.New("mission not found")

// MissionStore holds agreements awaiting settlement, ordered by trade date
// and then agreement uuid.
type MissionStore interface {
	// Put stores an agreement, replacing any with the same uuid and date.
	Put(agreement common.Agreement) error
	// Due returns the agreements traded on or before day-lag.
	Due(day, lag int) ([]common.Agreement, error)
	// Delete removes a settled agreement.
	Delete(agreement common.Agreement) error
	// Pending returns every stored agreement.
	Pending() ([]common.Agreement, error)
	Close() error
}

// missionKey orders missions by date, then uuid.
func missionKey(agreement common.Agreement) []byte {
	key := make([]byte, 0, len(missionPrefix)+8+len(agreement.UUID))
	key = append(key, missionPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(agreement.Date))
	return append(key, agreement.UUID...)
}

// dateBound is the first key after every mission traded on date.
func dateBound(date int) []byte {
	key := make([]byte, 0, len(missionPrefix)+8)
	key = append(key, missionPrefix...)
	return binary.BigEndian.AppendUint64(key, uint64(date)+1)
}

const missionPrefix = "m:"
