package leader

import (
	"context"
)

// CooldownChecker determines whether an entity served as primary leader
// within the cooldown distance of a slot. It is a pure read over persisted
// schedules and tolerates an empty history.
type CooldownChecker struct {
	store         Store
	cooldownSlots uint64
}

// NewCooldownChecker creates a CooldownChecker reading the schedule history
// from the given store.
func NewCooldownChecker(store Store, cooldownSlots uint64) *CooldownChecker {
	return &CooldownChecker{
		store:         store,
		cooldownSlots: cooldownSlots,
	}
}

// InCooldown checks whether the given entity is in cooldown at the given
// slot. It returns the cooldown state and the most recent slot at or before
// the given one that the entity led, or nil, if the entity has no leadership
// history. An error will be returned, if the schedule history couldn't be
// read.
func (c *CooldownChecker) InCooldown(ctx context.Context, entity string, slot uint64) (bool, *uint64, error) {
	lastSlot, err := c.store.LastSlotLedBy(ctx, entity, slot)
	if err != nil {
		return false, nil, err
	}
	if lastSlot == nil {
		return false, nil, nil
	}
	return slot-*lastSlot < c.cooldownSlots, lastSlot, nil
}
