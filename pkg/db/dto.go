package db

import "time"

// ProofKind refers to the kind of operational task a work proof asserts.
type ProofKind uint

const (
	// RelayBandwidth asserts that the node relayed session traffic.
	RelayBandwidth ProofKind = 0
	// StorageAvailability asserts that the node holds session chunks and
	// offers free capacity.
	StorageAvailability = 1
	// ValidationSignature asserts that the node signed session validations.
	ValidationSignature = 2
	// UptimeBeacon asserts observed node uptime.
	UptimeBeacon = 3
)

// ProofPayload carries the kind-specific measurements of a work proof. Only
// the fields relevant for the proof's kind are expected to be set.
type ProofPayload struct {
	// TransferredMB is the amount of relayed data in megabytes
	// (RelayBandwidth).
	TransferredMB float64 `json:"transferredMB,omitempty"`
	// DurationSec is the measurement period of the relayed data in seconds
	// (RelayBandwidth).
	DurationSec float64 `json:"durationSec,omitempty"`
	// AvailabilityRatio is the proportion of free storage capacity offered,
	// in [0,1] (StorageAvailability).
	AvailabilityRatio float64 `json:"availabilityRatio,omitempty"`
	// ChunksStored is the number of session chunks held
	// (StorageAvailability).
	ChunksStored uint `json:"chunksStored,omitempty"`
	// ValidationCount is the number of signed validations
	// (ValidationSignature).
	ValidationCount uint `json:"validationCount,omitempty"`
	// UptimePercentage is the observed uptime in percent, in [0,100]
	// (UptimeBeacon).
	UptimePercentage float64 `json:"uptimePercentage,omitempty"`
	// ConsecutiveUptimeHours is the length of the current uninterrupted
	// uptime streak in hours (UptimeBeacon).
	ConsecutiveUptimeHours float64 `json:"consecutiveUptimeHours,omitempty"`
}

// WorkProof is a single assertion of useful work by one entity for one slot.
// A proof is unique per (entity, slot, kind); a later submission for the same
// key replaces the earlier one.
type WorkProof struct {
	// Entity is the unique id of the node that performed the work.
	Entity string
	// Pool is the optional id of the pool the node belongs to. Credits of
	// pooled nodes are aggregated under the pool id.
	Pool string
	// Slot is the slot number the work is asserted for.
	Slot uint64
	// Kind is the kind of operational task.
	Kind ProofKind
	// Payload carries the kind-specific measurements.
	Payload ProofPayload
	// Signature is the raw signature over the proof. Cryptographic
	// verification is delegated to the submitting layer.
	Signature []byte
	// SubmittedAt is the time at which the proof was submitted.
	SubmittedAt time.Time
}

// CreditEntity returns the id under which this proof's credits are
// aggregated: the pool id if the node is pooled, the node id otherwise.
func (p *WorkProof) CreditEntity() string {
	if p.Pool != "" {
		return p.Pool
	}
	return p.Entity
}

// CreditTally is an entity's aggregated work-credit score for one epoch.
type CreditTally struct {
	// Epoch is the epoch for which the tally was computed.
	Epoch uint64
	// Entity is the credit entity (node or pool) the tally belongs to.
	Entity string
	// Credits is the total credit sum over all proof kinds.
	Credits uint64
	// RelayCredits is the credit share earned by relayed bandwidth.
	RelayCredits uint64
	// StorageCredits is the credit share earned by held storage.
	StorageCredits uint64
	// ValidationCredits is the credit share earned by signed validations.
	ValidationCredits uint64
	// UptimeCredits is the credit share earned by observed uptime.
	UptimeCredits uint64
	// ProofCount is the number of proofs contributing to this tally.
	ProofCount uint
	// LiveScore reflects recent proof density in [0,1].
	LiveScore float64
	// Rank is the 1-based position in the epoch's credit ordering. Ties
	// share adjacent but distinct ranks; tie-breaking happens at selection
	// time, not here.
	Rank uint
}

// SelectionReason states how a slot's primary leader was chosen.
type SelectionReason uint

const (
	// TopRanked means a single eligible entity held the top credit value.
	TopRanked SelectionReason = 0
	// CooldownFallback means every ranked entity was cooling down and the
	// top-ranked one was chosen regardless.
	CooldownFallback = 1
	// VRFTiebreak means several eligible entities tied at the top credit
	// value and the seed decided among them.
	VRFTiebreak = 2
	// EmergencyFallback means no ranked entity was available and the
	// primary was drawn from the operator-configured emergency pool.
	EmergencyFallback = 3
)

// OutcomeStatus refers to the observed block-production outcome of a slot.
type OutcomeStatus uint

const (
	// OutcomePending means block production for the slot hasn't concluded.
	OutcomePending OutcomeStatus = 0
	// OutcomePrimaryProduced means the scheduled primary produced the block.
	OutcomePrimaryProduced = 1
	// OutcomeFallbackProduced means one of the scheduled fallbacks produced
	// the block.
	OutcomeFallbackProduced = 2
	// OutcomeForeignProduced means an entity outside the schedule produced
	// the block.
	OutcomeForeignProduced = 3
	// OutcomeMissed means the deadline passed without any block production
	// being recorded.
	OutcomeMissed = 4
)

// LeaderSchedule is the elected leader set for one slot. It is created at
// slot-selection time and updated exactly once when the block-production
// outcome becomes known.
type LeaderSchedule struct {
	// Slot is the slot number the schedule was computed for.
	Slot uint64
	// Epoch is the epoch the slot belongs to.
	Epoch uint64
	// Primary is the credit entity elected as block leader.
	Primary string
	// Fallbacks is the ordered list of stand-in entities, distinct from the
	// primary and from each other.
	Fallbacks []string
	// Reason states how the primary was chosen.
	Reason SelectionReason
	// Seed is the per-slot seed that was used for tie-breaking.
	Seed []byte
	// Deadline is the advisory time by which the primary is expected to
	// have produced the block.
	Deadline time.Time
	// CreatedAt is the time at which the schedule was computed.
	CreatedAt time.Time
	// Winner is the entity that actually produced the block, once observed.
	Winner string
	// Outcome is the observed block-production outcome.
	Outcome OutcomeStatus
}

// Resolved reports whether the block-production outcome of this schedule has
// been recorded.
func (s *LeaderSchedule) Resolved() bool {
	return s.Outcome != OutcomePending
}
