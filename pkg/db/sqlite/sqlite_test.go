package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) db.DB {
	t.Helper()
	idb, err := NewSQLiteDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = idb.Close()
	})
	return idb
}

func testProof(entity string, slot uint64, kind db.ProofKind) *db.WorkProof {
	return &db.WorkProof{
		Entity:      entity,
		Slot:        slot,
		Kind:        kind,
		Payload:     db.ProofPayload{TransferredMB: 100, DurationSec: 10},
		Signature:   []byte{0xca, 0xfe},
		SubmittedAt: time.Now().UTC(),
	}
}

func testSchedule(slot uint64, primary string, fallbacks ...string) *db.LeaderSchedule {
	if fallbacks == nil {
		fallbacks = []string{}
	}
	return &db.LeaderSchedule{
		Slot:      slot,
		Epoch:     slot / 30,
		Primary:   primary,
		Fallbacks: fallbacks,
		Reason:    db.TopRanked,
		Seed:      []byte{0x01, 0x02, 0x03},
		Deadline:  time.Now().UTC().Add(5 * time.Second),
		CreatedAt: time.Now().UTC(),
	}
}

func TestProofUpsertIsIdempotent(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	first := testProof("node-1", 42, db.RelayBandwidth)
	require.NoError(t, idb.WriteProof(ctx, first))

	second := testProof("node-1", 42, db.RelayBandwidth)
	second.Payload.TransferredMB = 500
	require.NoError(t, idb.WriteProof(ctx, second))

	stored, err := idb.GetProof(ctx, "node-1", 42, db.RelayBandwidth)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, float64(500), stored.Payload.TransferredMB,
		"the later submission must replace the earlier one")

	proofs, err := idb.GetProofsSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, proofs, 1, "exactly one record must exist for the key")
}

func TestProofsWithDifferentKindsCoexist(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, idb.WriteProof(ctx, testProof("node-1", 42, db.RelayBandwidth)))
	require.NoError(t, idb.WriteProof(ctx, testProof("node-1", 42, db.UptimeBeacon)))
	require.NoError(t, idb.WriteProof(ctx, testProof("node-2", 42, db.RelayBandwidth)))

	proofs, err := idb.GetProofsSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, proofs, 3)
}

func TestGetProofsSinceFiltersByWindow(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	old := testProof("node-1", 10, db.RelayBandwidth)
	old.SubmittedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, idb.WriteProof(ctx, old))

	recent := testProof("node-2", 11, db.RelayBandwidth)
	require.NoError(t, idb.WriteProof(ctx, recent))

	proofs, err := idb.GetProofsSince(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	assert.Equal(t, "node-2", proofs[0].Entity)
}

func TestWriteTalliesReplacesEpoch(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, idb.WriteTallies(ctx, 7, []db.CreditTally{
		{Epoch: 7, Entity: "a", Credits: 10, Rank: 1},
		{Epoch: 7, Entity: "b", Credits: 5, Rank: 2},
	}))
	require.NoError(t, idb.WriteTallies(ctx, 7, []db.CreditTally{
		{Epoch: 7, Entity: "c", Credits: 80, Rank: 1},
		{Epoch: 7, Entity: "a", Credits: 20, Rank: 2},
	}))

	tallies, err := idb.GetTallies(ctx, 7)
	require.NoError(t, err)
	require.Len(t, tallies, 2, "the prior tally of the epoch must be gone")
	assert.Equal(t, "c", tallies[0].Entity)
	assert.Equal(t, uint64(80), tallies[0].Credits)
	assert.Equal(t, "a", tallies[1].Entity)
}

func TestGetTalliesOfUnknownEpochIsEmpty(t *testing.T) {
	idb := newTestDB(t)

	tallies, err := idb.GetTallies(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, tallies)
}

func TestScheduleFirstWriterWins(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, idb.WriteSchedule(ctx, testSchedule(100, "a", "b")))
	require.NoError(t, idb.WriteSchedule(ctx, testSchedule(100, "z")))

	stored, err := idb.GetSchedule(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "a", stored.Primary)
	assert.Equal(t, []string{"b"}, stored.Fallbacks)
}

func TestGetScheduleOfUnknownSlot(t *testing.T) {
	idb := newTestDB(t)

	schedule, err := idb.GetSchedule(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, schedule)
}

func TestRecordOutcomeOnlyOnce(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, idb.WriteSchedule(ctx, testSchedule(100, "a", "b")))

	err := idb.RecordOutcome(ctx, 100, "a", db.OutcomePrimaryProduced)
	require.NoError(t, err)

	err = idb.RecordOutcome(ctx, 100, "b", db.OutcomeFallbackProduced)
	assert.Equal(t, db.ConflictError, err)

	stored, err := idb.GetSchedule(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Winner)
	assert.Equal(t, db.OutcomeStatus(db.OutcomePrimaryProduced), stored.Outcome)
}

func TestRecordOutcomeForUnknownSlot(t *testing.T) {
	idb := newTestDB(t)

	err := idb.RecordOutcome(context.Background(), 4711, "a", db.OutcomePrimaryProduced)
	assert.Equal(t, db.NotFoundError, err)
}

func TestLastSlotLedBy(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, idb.WriteSchedule(ctx, testSchedule(10, "a")))
	require.NoError(t, idb.WriteSchedule(ctx, testSchedule(20, "a")))
	require.NoError(t, idb.WriteSchedule(ctx, testSchedule(30, "b")))

	last, err := idb.LastSlotLedBy(ctx, "a", 25)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, uint64(20), *last)

	last, err = idb.LastSlotLedBy(ctx, "a", 9)
	require.NoError(t, err)
	assert.Nil(t, last, "no leadership history exists at or before slot 9")

	last, err = idb.LastSlotLedBy(ctx, "c", 100)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestGetSchedulesInRange(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	for slot := uint64(10); slot < 15; slot++ {
		require.NoError(t, idb.WriteSchedule(ctx, testSchedule(slot, "a")))
	}

	schedules, err := idb.GetSchedulesInRange(ctx, 11, 14)
	require.NoError(t, err)
	require.Len(t, schedules, 3)
	assert.Equal(t, uint64(11), schedules[0].Slot)
	assert.Equal(t, uint64(13), schedules[2].Slot)
}

func TestGetUnresolvedSchedulesBefore(t *testing.T) {
	idb := newTestDB(t)
	ctx := context.Background()

	overdue := testSchedule(100, "a")
	overdue.Deadline = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, idb.WriteSchedule(ctx, overdue))

	resolved := testSchedule(101, "b")
	resolved.Deadline = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, idb.WriteSchedule(ctx, resolved))
	require.NoError(t, idb.RecordOutcome(ctx, 101, "b", db.OutcomePrimaryProduced))

	pending := testSchedule(102, "c")
	require.NoError(t, idb.WriteSchedule(ctx, pending))

	schedules, err := idb.GetUnresolvedSchedulesBefore(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, uint64(100), schedules[0].Slot)
}
