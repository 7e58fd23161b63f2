package consensus

import (
	"context"
	"testing"
	"time"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
	"github.com/HamiGames/Lucid-sub007/pkg/db/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherMarksOverdueSchedulesAsMissed(t *testing.T) {
	idb, err := sqlite.NewSQLiteDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = idb.Close()
	})
	ctx := context.Background()

	overdue := &db.LeaderSchedule{
		Slot:      100,
		Epoch:     3,
		Primary:   "a",
		Fallbacks: []string{"b"},
		Seed:      []byte{0x01},
		Deadline:  time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-2 * time.Minute),
	}
	require.NoError(t, idb.WriteSchedule(ctx, overdue))

	fresh := &db.LeaderSchedule{
		Slot:      101,
		Epoch:     3,
		Primary:   "b",
		Fallbacks: []string{},
		Seed:      []byte{0x02},
		Deadline:  time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, idb.WriteSchedule(ctx, fresh))

	watcher := NewWatcher(idb, time.Minute, 0, 3*time.Second)
	watcher.scanOverdue(ctx)

	stored, err := idb.GetSchedule(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, db.OutcomeStatus(db.OutcomeMissed), stored.Outcome)
	assert.Empty(t, stored.Winner)

	untouched, err := idb.GetSchedule(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, db.OutcomeStatus(db.OutcomePending), untouched.Outcome)
}

// unwritableStore always yields a full page of pending schedules whose
// outcomes cannot be written, the shape of a store whose reads work while
// writes fail.
type unwritableStore struct {
	db.DB
	obv   *db.Observer
	reads int
}

func (s *unwritableStore) Observer() *db.Observer {
	return s.obv
}

func (s *unwritableStore) GetUnresolvedSchedulesBefore(_ context.Context, _ time.Time,
	limit uint) ([]db.LeaderSchedule, error) {
	s.reads++
	schedules := make([]db.LeaderSchedule, limit)
	for i := range schedules {
		schedules[i] = db.LeaderSchedule{Slot: uint64(i), Primary: "a"}
	}
	return schedules, nil
}

func (s *unwritableStore) RecordOutcome(context.Context, uint64, string, db.OutcomeStatus) error {
	return db.WriteError
}

func TestWatcherScanEndsWhenNoScheduleCanBeResolved(t *testing.T) {
	store := &unwritableStore{obv: &db.Observer{}}
	watcher := NewWatcher(store, time.Minute, 0, time.Second)

	done := make(chan struct{})
	go func() {
		watcher.scanOverdue(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("the scan cycle never ended although no schedule could be resolved")
	}
	assert.Equal(t, 1, store.reads, "a page without progress must not be re-read")
}

func TestWatcherLeavesResolvedSchedulesAlone(t *testing.T) {
	idb, err := sqlite.NewSQLiteDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = idb.Close()
	})
	ctx := context.Background()

	schedule := &db.LeaderSchedule{
		Slot:      100,
		Epoch:     3,
		Primary:   "a",
		Fallbacks: []string{},
		Seed:      []byte{0x01},
		Deadline:  time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-2 * time.Minute),
	}
	require.NoError(t, idb.WriteSchedule(ctx, schedule))
	require.NoError(t, idb.RecordOutcome(ctx, 100, "a", db.OutcomePrimaryProduced))

	watcher := NewWatcher(idb, time.Minute, 0, 3*time.Second)
	watcher.scanOverdue(ctx)

	stored, err := idb.GetSchedule(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Winner)
	assert.Equal(t, db.OutcomeStatus(db.OutcomePrimaryProduced), stored.Outcome)
}
