package credit

import (
	"math"

	"github.com/HamiGames/Lucid-sub007/pkg/config"
	"github.com/HamiGames/Lucid-sub007/pkg/db"
)

// Calculator converts a single accepted work proof into a credit amount. The
// per-kind formula constants come from the configuration and are fixed for
// the lifetime of the calculator.
type Calculator struct {
	cfg config.CreditConfig
}

// NewCalculator creates a Calculator with the given formula constants.
func NewCalculator(cfg config.CreditConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Credits computes the credit amount earned by the given proof.
func (c *Calculator) Credits(proof *db.WorkProof) uint64 {
	switch proof.Kind {
	case db.RelayBandwidth:
		return c.relayCredits(&proof.Payload)
	case db.StorageAvailability:
		return c.storageCredits(&proof.Payload)
	case db.ValidationSignature:
		return c.validationCredits(&proof.Payload)
	case db.UptimeBeacon:
		return c.uptimeCredits(&proof.Payload)
	default:
		return 0
	}
}

// relayCredits scales the relayed bandwidth in MB/s by the configured base
// rate. Every accepted bandwidth proof earns at least one credit.
func (c *Calculator) relayCredits(payload *db.ProofPayload) uint64 {
	bandwidth := payload.TransferredMB / payload.DurationSec
	credits := uint64(math.Floor(bandwidth / c.cfg.BaseMBPerSession))
	if credits < 1 {
		return 1
	}
	return credits
}

// storageCredits rewards both the proportion of free capacity offered and
// the absolute chunks held. The chunk share is capped to avoid unbounded
// gaming.
func (c *Calculator) storageCredits(payload *db.ProofPayload) uint64 {
	ratioCredits := uint64(math.Floor(payload.AvailabilityRatio * float64(c.cfg.StorageRatioMultiplier)))
	chunkCredits := uint64(payload.ChunksStored)
	if chunkCredits > uint64(c.cfg.StorageChunkCap) {
		chunkCredits = uint64(c.cfg.StorageChunkCap)
	}
	return ratioCredits + chunkCredits
}

// validationCredits rewards signed validations, capped so that a single
// entity cannot dominate through signature volume alone.
func (c *Calculator) validationCredits(payload *db.ProofPayload) uint64 {
	credits := uint64(payload.ValidationCount) * uint64(c.cfg.ValidationMultiplier)
	if credits > uint64(c.cfg.ValidationCap) {
		return uint64(c.cfg.ValidationCap)
	}
	return credits
}

// uptimeCredits rewards both instantaneous and sustained uptime. The
// sustained share counts full days of uninterrupted uptime, capped.
func (c *Calculator) uptimeCredits(payload *db.ProofPayload) uint64 {
	stepCredits := uint64(math.Floor(payload.UptimePercentage / c.cfg.UptimeStepPercentage))
	sustainedCredits := uint64(math.Floor(payload.ConsecutiveUptimeHours / 24))
	if sustainedCredits > uint64(c.cfg.UptimeSustainedCap) {
		sustainedCredits = uint64(c.cfg.UptimeSustainedCap)
	}
	return stepCredits + sustainedCredits
}
