package credit

import (
	"fmt"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
)

// Validate checks the structural sanity of a submitted work proof before it
// is accepted. It performs no cryptographic verification; the signature is
// only required to be present. Validate is a pure predicate: it returns
// whether the proof is acceptable, and a discardable reason when it isn't.
func Validate(proof *db.WorkProof) (bool, string) {
	if proof == nil {
		return false, "no proof given"
	}
	if proof.Entity == "" {
		return false, "the entity id is missing"
	}
	if len(proof.Signature) == 0 {
		return false, "the signature is missing"
	}
	switch proof.Kind {
	case db.RelayBandwidth:
		return validateRelay(&proof.Payload)
	case db.StorageAvailability:
		return validateStorage(&proof.Payload)
	case db.ValidationSignature:
		return validateValidation(&proof.Payload)
	case db.UptimeBeacon:
		return validateUptime(&proof.Payload)
	default:
		return false, fmt.Sprintf("unknown proof kind %d", proof.Kind)
	}
}

func validateRelay(payload *db.ProofPayload) (bool, string) {
	if payload.TransferredMB <= 0 {
		return false, "the transferred megabytes must be positive"
	}
	if payload.DurationSec <= 0 {
		return false, "the measurement duration must be positive"
	}
	return true, ""
}

func validateStorage(payload *db.ProofPayload) (bool, string) {
	if payload.AvailabilityRatio < 0 || payload.AvailabilityRatio > 1 {
		return false, "the availability ratio must be within [0,1]"
	}
	if payload.AvailabilityRatio == 0 && payload.ChunksStored == 0 {
		return false, "the storage measurements are missing"
	}
	return true, ""
}

func validateValidation(payload *db.ProofPayload) (bool, string) {
	if payload.ValidationCount == 0 {
		return false, "the validation count is missing"
	}
	return true, ""
}

func validateUptime(payload *db.ProofPayload) (bool, string) {
	if payload.UptimePercentage < 0 || payload.UptimePercentage > 100 {
		return false, "the uptime percentage must be within [0,100]"
	}
	if payload.ConsecutiveUptimeHours < 0 {
		return false, "the consecutive uptime hours must not be negative"
	}
	return true, ""
}
