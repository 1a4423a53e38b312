package storage

import (
	"path/filepath"
	"testing"

	"bourse/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mission(uuid string, date int) common.Agreement {
	return common.Agreement{
		UUID:        uuid,
		Buyer:       "CLIENT1",
		Seller:      "CLIENT2",
		Ticker:      "IBM",
		Quantity:    100,
		Price:       102.93,
		Date:        date,
		BuyOrderID:  1,
		SellOrderID: 2,
	}
}

func uuids(missions []common.Agreement) []string {
	out := make([]string, len(missions))
	for i, m := range missions {
		out[i] = m.UUID
	}
	return out
}

func testMissionStore(t *testing.T, store MissionStore) {
	require.NoError(t, store.Put(mission("c", 2)))
	require.NoError(t, store.Put(mission("b", 1)))
	require.NoError(t, store.Put(mission("a", 3)))
	require.NoError(t, store.Put(mission("a", 1)))

	pending, err := store.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "a"}, uuids(pending), "ordered by date then uuid")
	assert.Equal(t, mission("a", 1), pending[0])

	due, err := store.Due(2, 2)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = store.Due(3, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, uuids(due))

	due, err = store.Due(4, 2)
	require.NoError(t, err)
	assert.Len(t, due, 3)

	require.NoError(t, store.Delete(mission("b", 1)))
	assert.ErrorIs(t, store.Delete(mission("b", 1)), ErrMissionNotFound)

	pending, err = store.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "a"}, uuids(pending))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	testMissionStore(t, store)
}

func TestPebbleStore(t *testing.T) {
	store, err := OpenPebbleStore(filepath.Join(t.TempDir(), "missions"))
	require.NoError(t, err)
	defer store.Close()
	testMissionStore(t, store)
}

func TestPebbleStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions")
	store, err := OpenPebbleStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(mission("a", 1)))
	require.NoError(t, store.Close())

	store, err = OpenPebbleStore(path)
	require.NoError(t, err)
	defer store.Close()
	pending, err := store.Pending()
	require.NoError(t, err)
	assert.Equal(t, []common.Agreement{mission("a", 1)}, pending)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("m;"), prefixEnd([]byte("m:")))
	assert.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff}))
}
