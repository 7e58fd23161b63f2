package leader

import (
	"context"
	"time"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
	"github.com/HamiGames/Lucid-sub007/pkg/vrf"
	log "github.com/sirupsen/logrus"
)

// Store is the read surface of the persistent store that leader selection
// depends on. It is satisfied by db.DB.
type Store interface {

	// GetTallies gets the credit tallies of the given epoch, ordered by
	// total credits descending.
	GetTallies(ctx context.Context, epoch uint64) ([]db.CreditTally, error)

	// GetSchedule gets the leader schedule of the given slot, or nil, if no
	// schedule has been written for it.
	GetSchedule(ctx context.Context, slot uint64) (*db.LeaderSchedule, error)

	// LastSlotLedBy gets the most recent slot at or before the given slot
	// for which the given entity was the scheduled primary, or nil, if the
	// entity never led a slot in that range.
	LastSlotLedBy(ctx context.Context, entity string, slot uint64) (*uint64, error)
}

// Selector elects the leader schedule of a slot from the ranked credit
// tallies, the cooldown history and the per-slot seed. Selection is a
// deterministic function of the committed tallies, the committed schedule
// history and the seed; it never fails, but degrades to an emergency
// schedule when its inputs are unavailable.
type Selector struct {
	store         Store
	seeder        vrf.Seeder
	cooldown      *CooldownChecker
	maxFallbacks  uint
	slotTimeout   time.Duration
	emergencyPool []string
}

// NewSelector creates a Selector. The emergency pool is the operator-
// configured set of entities among which a leader is drawn when no ranked
// entity is available.
func NewSelector(store Store, seeder vrf.Seeder, cooldownSlots uint64, maxFallbacks uint,
	slotTimeout time.Duration, emergencyPool []string) *Selector {
	return &Selector{
		store:         store,
		seeder:        seeder,
		cooldown:      NewCooldownChecker(store, cooldownSlots),
		maxFallbacks:  maxFallbacks,
		slotTimeout:   slotTimeout,
		emergencyPool: emergencyPool,
	}
}

// Select computes the leader schedule for the given slot in the given epoch.
// Unreadable tallies or history degrade the result to an emergency schedule
// rather than failing; the slot clock must never halt on a lookup failure.
func (s *Selector) Select(ctx context.Context, slot, epoch uint64) *db.LeaderSchedule {
	seed := s.deriveSeed(ctx, slot)
	tallies, err := s.store.GetTallies(ctx, epoch)
	if err != nil {
		log.Errorf("falling back to the emergency pool for slot=%d, the tallies of epoch=%d are unreadable",
			slot, epoch)
		return s.emergencySchedule(slot, epoch, seed)
	}
	if len(tallies) == 0 {
		return s.emergencySchedule(slot, epoch, seed)
	}
	eligible, cooling, err := s.partition(ctx, tallies, slot)
	if err != nil {
		log.Errorf("falling back to the emergency pool for slot=%d, the schedule history is unreadable", slot)
		return s.emergencySchedule(slot, epoch, seed)
	}
	primary, reason := choosePrimary(eligible, cooling, seed)
	if primary == "" {
		return s.emergencySchedule(slot, epoch, seed)
	}
	fallbacks := chooseFallbacks(eligible, cooling, primary, s.maxFallbacks)
	return s.newSchedule(slot, epoch, primary, fallbacks, reason, seed)
}

// deriveSeed derives the per-slot seed, chained to the previous slot's
// committed seed, when one exists. A missing or unreadable predecessor yields
// an unchained seed; the derivation stays a pure function of slot and
// committed data.
func (s *Selector) deriveSeed(ctx context.Context, slot uint64) []byte {
	var prior []byte
	if slot > 0 {
		previous, err := s.store.GetSchedule(ctx, slot-1)
		if err == nil && previous != nil {
			prior = previous.Seed
		}
	}
	seed, err := s.seeder.Seed(slot, prior)
	if err != nil {
		log.Errorf("the '%s' seeder failed for slot=%d, deriving an unchained hash seed: %s",
			s.seeder.Name(), slot, err.Error())
		fallback := vrf.NewHashSeeder()
		seed, _ = fallback.Seed(slot, prior)
	}
	return seed
}

// partition splits the ranked tallies into entities that are eligible and
// entities that are cooling down, preserving rank order within each
// partition.
func (s *Selector) partition(ctx context.Context, tallies []db.CreditTally,
	slot uint64) (eligible, cooling []db.CreditTally, err error) {
	eligible = make([]db.CreditTally, 0, len(tallies))
	cooling = make([]db.CreditTally, 0)
	for _, tally := range tallies {
		inCooldown, _, err := s.cooldown.InCooldown(ctx, tally.Entity, slot)
		if err != nil {
			return nil, nil, err
		}
		if inCooldown {
			cooling = append(cooling, tally)
		} else {
			eligible = append(eligible, tally)
		}
	}
	return eligible, cooling, nil
}

// choosePrimary picks the primary leader. Among the eligible entities, those
// sharing the top credit value form the candidate pool; a single candidate is
// top-ranked, several candidates are tie-broken by the seed. When every
// ranked entity is cooling down, fairness still requires a leader, so the
// top-ranked cooling entity is chosen.
func choosePrimary(eligible, cooling []db.CreditTally, seed []byte) (string, db.SelectionReason) {
	if len(eligible) > 0 {
		topCredits := eligible[0].Credits
		tied := make([]string, 0, 1)
		for _, tally := range eligible {
			if tally.Credits != topCredits {
				break
			}
			tied = append(tied, tally.Entity)
		}
		if len(tied) == 1 {
			return tied[0], db.TopRanked
		}
		return vrf.Select(tied, seed), db.VRFTiebreak
	}
	if len(cooling) > 0 {
		return cooling[0].Entity, db.CooldownFallback
	}
	return "", db.EmergencyFallback
}

// chooseFallbacks picks up to max distinct stand-in entities, preferring the
// remaining eligible entities in rank order, then the cooling entities in
// rank order.
func chooseFallbacks(eligible, cooling []db.CreditTally, primary string, max uint) []string {
	fallbacks := make([]string, 0, max)
	for _, partition := range [][]db.CreditTally{eligible, cooling} {
		for _, tally := range partition {
			if uint(len(fallbacks)) >= max {
				return fallbacks
			}
			if tally.Entity == primary {
				continue
			}
			fallbacks = append(fallbacks, tally.Entity)
		}
	}
	return fallbacks
}

// emergencySchedule draws the primary from the operator-configured emergency
// pool. An empty pool still yields a schedule, with an empty primary, so the
// slot is never skipped.
func (s *Selector) emergencySchedule(slot, epoch uint64, seed []byte) *db.LeaderSchedule {
	primary := vrf.Select(s.emergencyPool, seed)
	fallbacks := make([]string, 0, s.maxFallbacks)
	for _, entity := range s.emergencyPool {
		if uint(len(fallbacks)) >= s.maxFallbacks {
			break
		}
		if entity == primary {
			continue
		}
		fallbacks = append(fallbacks, entity)
	}
	if primary == "" {
		log.Warnf("no emergency pool is configured, the schedule for slot=%d has no primary", slot)
	}
	return s.newSchedule(slot, epoch, primary, fallbacks, db.EmergencyFallback, seed)
}

func (s *Selector) newSchedule(slot, epoch uint64, primary string, fallbacks []string,
	reason db.SelectionReason, seed []byte) *db.LeaderSchedule {
	now := time.Now()
	return &db.LeaderSchedule{
		Slot:      slot,
		Epoch:     epoch,
		Primary:   primary,
		Fallbacks: fallbacks,
		Reason:    reason,
		Seed:      seed,
		Deadline:  now.Add(s.slotTimeout),
		CreatedAt: now,
	}
}
