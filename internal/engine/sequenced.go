package engine

import (
	"bourse/internal/common"

	"github.com/tidwall/btree"
)

// sequenced keeps orders in admission order. Orders are keyed by an
// increasing sequence number so scans always run earliest first, and an id
// index allows removal of a specific order.
type sequenced struct {
	next   uint64
	orders btree.Map[uint64, common.Order]
	index  map[common.OrderID]uint64
}

func newSequenced() sequenced {
	return sequenced{index: make(map[common.OrderID]uint64)}
}

func (s *sequenced) add(order common.Order) {
	s.next++
	s.orders.Set(s.next, order)
	s.index[order.ID] = s.next
}

func (s *sequenced) remove(id common.OrderID) (common.Order, bool) {
	seq, ok := s.index[id]
	if !ok {
		return common.Order{}, false
	}
	delete(s.index, id)
	return s.orders.Delete(seq)
}

func (s *sequenced) contains(id common.OrderID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *sequenced) get(id common.OrderID) (common.Order, bool) {
	seq, ok := s.index[id]
	if !ok {
		return common.Order{}, false
	}
	return s.orders.Get(seq)
}

// scan visits orders earliest first until visit returns false. The store
// must not be modified during the scan.
func (s *sequenced) scan(visit func(order common.Order) bool) {
	s.orders.Scan(func(_ uint64, order common.Order) bool {
		return visit(order)
	})
}

func (s *sequenced) len() int { return s.orders.Len() }

func (s *sequenced) snapshot() []common.Order { return s.orders.Values() }
