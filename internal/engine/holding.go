package engine

import "bourse/internal/common"

// HoldingSet tracks resting stop orders that are re-evaluated after every
// trade. Iteration runs in admission order.
type HoldingSet struct {
	orders sequenced
}

func NewHoldingSet() *HoldingSet {
	return &HoldingSet{orders: newSequenced()}
}

func (h *HoldingSet) Add(order common.Order) { h.orders.add(order) }

func (h *HoldingSet) Remove(id common.OrderID) bool {
	_, ok := h.orders.remove(id)
	return ok
}

func (h *HoldingSet) Get(id common.OrderID) (common.Order, bool) { return h.orders.get(id) }

func (h *HoldingSet) Contains(id common.OrderID) bool { return h.orders.contains(id) }

func (h *HoldingSet) Size() int { return h.orders.len() }

// Snapshot returns the held orders, detached from the set.
func (h *HoldingSet) Snapshot() []common.Order { return h.orders.snapshot() }
