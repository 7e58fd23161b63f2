package db

import (
	"context"
	"errors"
	"time"
)

// DB is an interface to store and query work proofs, credit tallies and
// leader schedules.
type DB interface {

	// Observer is returning a db.Observer for this db.DB instance.
	Observer() *Observer

	// WriteProof persists the given work proof. A proof with the same
	// (entity, slot, kind) key replaces the previously stored one.
	WriteProof(ctx context.Context, proof *WorkProof) error

	// GetProofsSince gets all work proofs submitted at or after the given
	// time, ordered by submission time ascending.
	GetProofsSince(ctx context.Context, since time.Time) ([]WorkProof, error)

	// GetProof gets the work proof stored under the given (entity, slot,
	// kind) key, or nil, if no such proof has been stored.
	GetProof(ctx context.Context, entity string, slot uint64, kind ProofKind) (*WorkProof, error)

	// WriteTallies replaces the stored credit tallies of the given epoch
	// with the given list.
	WriteTallies(ctx context.Context, epoch uint64, tallies []CreditTally) error

	// GetTallies gets the credit tallies of the given epoch, ordered by
	// total credits descending. An epoch without tallies yields an empty
	// list, not an error.
	GetTallies(ctx context.Context, epoch uint64) ([]CreditTally, error)

	// WriteSchedule persists the given leader schedule, unless a schedule
	// for the same slot has already been written. The first written
	// schedule for a slot wins; selection is deterministic, so concurrent
	// writers compute identical content.
	WriteSchedule(ctx context.Context, schedule *LeaderSchedule) error

	// GetSchedule gets the leader schedule of the given slot, or nil, if no
	// schedule has been written for it.
	GetSchedule(ctx context.Context, slot uint64) (*LeaderSchedule, error)

	// GetSchedulesInRange gets the leader schedules with from <= slot < to,
	// ordered by slot ascending.
	GetSchedulesInRange(ctx context.Context, from, to uint64) ([]LeaderSchedule, error)

	// LastSlotLedBy gets the most recent slot at or before the given slot
	// for which the given entity was the scheduled primary, or nil, if the
	// entity never led a slot in that range.
	LastSlotLedBy(ctx context.Context, entity string, slot uint64) (*uint64, error)

	// GetUnresolvedSchedulesBefore gets up to limit leader schedules whose
	// deadline lies before the given time and whose outcome is still
	// pending, ordered by slot ascending.
	GetUnresolvedSchedulesBefore(ctx context.Context, deadline time.Time, limit uint) ([]LeaderSchedule, error)

	// RecordOutcome records the observed block-production outcome for the
	// schedule of the given slot. It fails with ConflictError, if the
	// outcome has already been recorded, and with NotFoundError, if no
	// schedule exists for the slot.
	RecordOutcome(ctx context.Context, slot uint64, winner string, outcome OutcomeStatus) error

	// Close closes this database and all connections.
	Close() error
}

var (
	// ReadError is returned, when querying the database failed for some reason.
	ReadError = errors.New("read from the database failed")
	// WriteError is returned, when writing to the database failed for some reason.
	WriteError = errors.New("write to the database failed")
	// NotFoundError is returned, when a record that must exist for the
	// operation is missing.
	NotFoundError = errors.New("record couldn't be found")
	// ConflictError is returned, when an operation would overwrite a record
	// that may only be written once.
	ConflictError = errors.New("record has already been written")
)
