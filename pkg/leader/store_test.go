package leader

import (
	"context"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
)

// fakeStore is an in-memory leader.Store used to drive the selector through
// its branches, including failing reads.
type fakeStore struct {
	tallies    map[uint64][]db.CreditTally
	schedules  map[uint64]*db.LeaderSchedule
	tallyErr   error
	historyErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tallies:   make(map[uint64][]db.CreditTally),
		schedules: make(map[uint64]*db.LeaderSchedule),
	}
}

func (f *fakeStore) GetTallies(_ context.Context, epoch uint64) ([]db.CreditTally, error) {
	if f.tallyErr != nil {
		return nil, f.tallyErr
	}
	return f.tallies[epoch], nil
}

func (f *fakeStore) GetSchedule(_ context.Context, slot uint64) (*db.LeaderSchedule, error) {
	return f.schedules[slot], nil
}

func (f *fakeStore) LastSlotLedBy(_ context.Context, entity string, slot uint64) (*uint64, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	var last *uint64
	for s, schedule := range f.schedules {
		if schedule.Primary != entity || s > slot {
			continue
		}
		if last == nil || s > *last {
			ledAt := s
			last = &ledAt
		}
	}
	return last, nil
}

// ranked builds an ordered tally list from (entity, credits) pairs, the way
// the store returns them: credits descending, dense ranks.
func ranked(epoch uint64, entries ...struct {
	Entity  string
	Credits uint64
}) []db.CreditTally {
	tallies := make([]db.CreditTally, len(entries))
	for i, entry := range entries {
		tallies[i] = db.CreditTally{
			Epoch:   epoch,
			Entity:  entry.Entity,
			Credits: entry.Credits,
			Rank:    uint(i) + 1,
		}
	}
	return tallies
}

func entry(entity string, credits uint64) struct {
	Entity  string
	Credits uint64
} {
	return struct {
		Entity  string
		Credits uint64
	}{Entity: entity, Credits: credits}
}
