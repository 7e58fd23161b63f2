package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 120*time.Second, cfg.SlotDuration)
	assert.Equal(t, 5*time.Second, cfg.SlotTimeout)
	assert.Equal(t, uint64(16), cfg.CooldownSlots)
	assert.Equal(t, uint(3), cfg.MaxFallbacks)
	assert.Equal(t, 7*24*time.Hour, cfg.LeaderWindow)
	assert.Equal(t, uint64(30), cfg.EpochSlots)
	assert.Equal(t, time.Hour, cfg.TallyInterval)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Empty(t, cfg.EmergencyPool)
	assert.Empty(t, cfg.VRFKeyHex)
	assert.Equal(t, float64(5), cfg.Credit.BaseMBPerSession)
	assert.Equal(t, uint(50), cfg.Credit.ValidationCap)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LUCID_SLOT_DURATION_SEC", "60")
	t.Setenv("LUCID_COOLDOWN_SLOTS", "8")
	t.Setenv("LUCID_LEADER_WINDOW_DAYS", "1")
	t.Setenv("LUCID_EMERGENCY_POOL", "ops-1, ops-2,,ops-3")
	t.Setenv("LUCID_VALIDATION_CAP", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.SlotDuration)
	assert.Equal(t, uint64(8), cfg.CooldownSlots)
	assert.Equal(t, 24*time.Hour, cfg.LeaderWindow)
	assert.Equal(t, []string{"ops-1", "ops-2", "ops-3"}, cfg.EmergencyPool)
	assert.Equal(t, uint(25), cfg.Credit.ValidationCap)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("LUCID_COOLDOWN_SLOTS", "sixteen")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsZeroSlotDuration(t *testing.T) {
	t.Setenv("LUCID_SLOT_DURATION_SEC", "0")

	_, err := Load()
	assert.Error(t, err)
}
