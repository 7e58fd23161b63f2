package leader

import (
	"context"
	"testing"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInCooldownWithoutHistory(t *testing.T) {
	checker := NewCooldownChecker(newFakeStore(), 16)

	inCooldown, lastSlot, err := checker.InCooldown(context.Background(), "a", 100)
	require.NoError(t, err)
	assert.False(t, inCooldown)
	assert.Nil(t, lastSlot)
}

func TestInCooldownWithinDistance(t *testing.T) {
	store := newFakeStore()
	store.schedules[95] = &db.LeaderSchedule{Slot: 95, Primary: "a"}
	checker := NewCooldownChecker(store, 16)

	inCooldown, lastSlot, err := checker.InCooldown(context.Background(), "a", 100)
	require.NoError(t, err)
	assert.True(t, inCooldown)
	require.NotNil(t, lastSlot)
	assert.Equal(t, uint64(95), *lastSlot)
}

func TestInCooldownBoundary(t *testing.T) {
	store := newFakeStore()
	store.schedules[85] = &db.LeaderSchedule{Slot: 85, Primary: "a"}
	checker := NewCooldownChecker(store, 16)

	// 100-85 = 15 < 16: still cooling.
	inCooldown, _, err := checker.InCooldown(context.Background(), "a", 100)
	require.NoError(t, err)
	assert.True(t, inCooldown)

	// 101-85 = 16: the cooldown has just expired.
	inCooldown, _, err = checker.InCooldown(context.Background(), "a", 101)
	require.NoError(t, err)
	assert.False(t, inCooldown)
}

func TestInCooldownUsesMostRecentLeadership(t *testing.T) {
	store := newFakeStore()
	store.schedules[50] = &db.LeaderSchedule{Slot: 50, Primary: "a"}
	store.schedules[98] = &db.LeaderSchedule{Slot: 98, Primary: "a"}
	checker := NewCooldownChecker(store, 16)

	inCooldown, lastSlot, err := checker.InCooldown(context.Background(), "a", 100)
	require.NoError(t, err)
	assert.True(t, inCooldown)
	require.NotNil(t, lastSlot)
	assert.Equal(t, uint64(98), *lastSlot)
}

func TestInCooldownPropagatesReadFailure(t *testing.T) {
	store := newFakeStore()
	store.historyErr = db.ReadError
	checker := NewCooldownChecker(store, 16)

	_, _, err := checker.InCooldown(context.Background(), "a", 100)
	assert.Error(t, err)
}
