package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CreditConfig holds the tunable constants of the per-kind credit formulas.
type CreditConfig struct {
	// BaseMBPerSession is the relayed megabytes per second that earn one
	// relay credit.
	BaseMBPerSession float64
	// StorageRatioMultiplier scales the offered availability ratio into
	// storage credits.
	StorageRatioMultiplier uint
	// StorageChunkCap caps the credits earned from absolute chunks held.
	StorageChunkCap uint
	// ValidationMultiplier is the credits earned per signed validation.
	ValidationMultiplier uint
	// ValidationCap caps the credits earned from signed validations.
	ValidationCap uint
	// UptimeStepPercentage is the uptime percentage step that earns one
	// uptime credit.
	UptimeStepPercentage float64
	// UptimeSustainedCap caps the credits earned from sustained uptime.
	UptimeSustainedCap uint
}

// Config holds all tunables of the consensus engine. It is read once from the
// environment at startup; changing the environment afterwards has no effect.
// Changing values between epochs of the same deployment is an operational
// constraint and not guarded against here.
type Config struct {
	// SlotDuration is the fixed duration of a slot.
	SlotDuration time.Duration
	// SlotTimeout is the advisory block-production deadline measured from
	// slot-selection time.
	SlotTimeout time.Duration
	// CooldownSlots is the number of slots an entity must wait after
	// serving as primary leader before being eligible again.
	CooldownSlots uint64
	// MaxFallbacks bounds the length of the fallback list of a schedule.
	MaxFallbacks uint
	// LeaderWindow is the trailing time window of proofs that contribute to
	// a tally.
	LeaderWindow time.Duration
	// EpochSlots is the number of slots per epoch.
	EpochSlots uint64
	// TallyInterval is the period of the tally recomputation loop.
	TallyInterval time.Duration
	// StoreTimeout bounds every single store operation of the periodic
	// loops, so a stalled store cannot wedge them.
	StoreTimeout time.Duration
	// EmergencyPool is the operator-configured list of entities among which
	// a leader is drawn when no ranked entity is available.
	EmergencyPool []string
	// VRFKeyHex is the optional hex-encoded secp256k1 private key enabling
	// the ECVRF seeder. An empty value selects the hash-based seeder.
	VRFKeyHex string
	// Credit holds the credit formula constants.
	Credit CreditConfig
}

// Load reads the configuration from the environment. Unset variables fall
// back to their defaults. An error will be returned, if a set variable cannot
// be parsed or violates its physical range.
func Load() (*Config, error) {
	cfg := &Config{
		SlotDuration:  120 * time.Second,
		SlotTimeout:   5000 * time.Millisecond,
		CooldownSlots: 16,
		MaxFallbacks:  3,
		LeaderWindow:  7 * 24 * time.Hour,
		EpochSlots:    30,
		TallyInterval: time.Hour,
		StoreTimeout:  3000 * time.Millisecond,
		Credit: CreditConfig{
			BaseMBPerSession:       5,
			StorageRatioMultiplier: 10,
			StorageChunkCap:        20,
			ValidationMultiplier:   3,
			ValidationCap:          50,
			UptimeStepPercentage:   10,
			UptimeSustainedCap:     20,
		},
	}
	var err error
	cfg.SlotDuration, err = secondsVar("LUCID_SLOT_DURATION_SEC", cfg.SlotDuration)
	if err != nil {
		return nil, err
	}
	cfg.SlotTimeout, err = millisVar("LUCID_SLOT_TIMEOUT_MS", cfg.SlotTimeout)
	if err != nil {
		return nil, err
	}
	cfg.CooldownSlots, err = uint64Var("LUCID_COOLDOWN_SLOTS", cfg.CooldownSlots)
	if err != nil {
		return nil, err
	}
	maxFallbacks, err := uint64Var("LUCID_MAX_FALLBACKS", uint64(cfg.MaxFallbacks))
	if err != nil {
		return nil, err
	}
	cfg.MaxFallbacks = uint(maxFallbacks)
	windowDays, err := uint64Var("LUCID_LEADER_WINDOW_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cfg.LeaderWindow = time.Duration(windowDays) * 24 * time.Hour
	cfg.EpochSlots, err = uint64Var("LUCID_EPOCH_SLOTS", cfg.EpochSlots)
	if err != nil {
		return nil, err
	}
	if cfg.EpochSlots == 0 {
		return nil, fmt.Errorf("LUCID_EPOCH_SLOTS must be positive")
	}
	cfg.TallyInterval, err = secondsVar("LUCID_TALLY_INTERVAL_SEC", cfg.TallyInterval)
	if err != nil {
		return nil, err
	}
	cfg.StoreTimeout, err = millisVar("LUCID_STORE_TIMEOUT_MS", cfg.StoreTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Credit.BaseMBPerSession, err = floatVar("LUCID_BASE_MB_PER_SESSION", cfg.Credit.BaseMBPerSession)
	if err != nil {
		return nil, err
	}
	if cfg.Credit.BaseMBPerSession <= 0 {
		return nil, fmt.Errorf("LUCID_BASE_MB_PER_SESSION must be positive")
	}
	cfg.Credit.StorageRatioMultiplier, err = uintVar("LUCID_STORAGE_RATIO_MULTIPLIER",
		cfg.Credit.StorageRatioMultiplier)
	if err != nil {
		return nil, err
	}
	cfg.Credit.StorageChunkCap, err = uintVar("LUCID_STORAGE_CHUNK_CAP", cfg.Credit.StorageChunkCap)
	if err != nil {
		return nil, err
	}
	cfg.Credit.ValidationMultiplier, err = uintVar("LUCID_VALIDATION_MULTIPLIER",
		cfg.Credit.ValidationMultiplier)
	if err != nil {
		return nil, err
	}
	cfg.Credit.ValidationCap, err = uintVar("LUCID_VALIDATION_CAP", cfg.Credit.ValidationCap)
	if err != nil {
		return nil, err
	}
	cfg.Credit.UptimeStepPercentage, err = floatVar("LUCID_UPTIME_STEP_PCT", cfg.Credit.UptimeStepPercentage)
	if err != nil {
		return nil, err
	}
	if cfg.Credit.UptimeStepPercentage <= 0 {
		return nil, fmt.Errorf("LUCID_UPTIME_STEP_PCT must be positive")
	}
	cfg.Credit.UptimeSustainedCap, err = uintVar("LUCID_UPTIME_SUSTAINED_CAP", cfg.Credit.UptimeSustainedCap)
	if err != nil {
		return nil, err
	}
	cfg.EmergencyPool = listVar("LUCID_EMERGENCY_POOL")
	cfg.VRFKeyHex = os.Getenv("LUCID_VRF_KEY")
	return cfg, nil
}

func uint64Var(name string, fallback uint64) (uint64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer, but was '%s'", name, raw)
	}
	return value, nil
}

func uintVar(name string, fallback uint) (uint, error) {
	value, err := uint64Var(name, uint64(fallback))
	return uint(value), err
}

func floatVar(name string, fallback float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, but was '%s'", name, raw)
	}
	return value, nil
}

func secondsVar(name string, fallback time.Duration) (time.Duration, error) {
	seconds, err := uint64Var(name, uint64(fallback/time.Second))
	if err != nil {
		return 0, err
	}
	if seconds == 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return time.Duration(seconds) * time.Second, nil
}

func millisVar(name string, fallback time.Duration) (time.Duration, error) {
	millis, err := uint64Var(name, uint64(fallback/time.Millisecond))
	if err != nil {
		return 0, err
	}
	if millis == 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return time.Duration(millis) * time.Millisecond, nil
}

func listVar(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	entries := make([]string, 0, len(parts))
	for _, part := range parts {
		entry := strings.TrimSpace(part)
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}
