package consensus

import (
	"context"
	"time"

	"github.com/HamiGames/Lucid-sub007/pkg/config"
	"github.com/HamiGames/Lucid-sub007/pkg/credit"
	"github.com/HamiGames/Lucid-sub007/pkg/db"
	"github.com/HamiGames/Lucid-sub007/pkg/leader"
	"github.com/HamiGames/Lucid-sub007/pkg/vrf"
	log "github.com/sirupsen/logrus"
)

// Engine owns the slot and epoch clock of the PoOT consensus. It runs two
// independent periodic loops: the slot loop elects and persists a leader
// schedule on every slot boundary, and the tally loop recomputes the credit
// tallies over the trailing proof window. The loops share no mutable state;
// all coordination happens through the persistent store, so several engine
// instances may run against the same store.
type Engine struct {
	db         db.DB
	cfg        *config.Config
	selector   *leader.Selector
	aggregator *credit.Aggregator
}

// NewEngine creates an Engine electing leaders with the given seeder and
// persisting through the given store.
func NewEngine(idb db.DB, cfg *config.Config, seeder vrf.Seeder) *Engine {
	calculator := credit.NewCalculator(cfg.Credit)
	return &Engine{
		db:  idb,
		cfg: cfg,
		selector: leader.NewSelector(idb, seeder, cfg.CooldownSlots, cfg.MaxFallbacks, cfg.SlotTimeout,
			cfg.EmergencyPool),
		aggregator: credit.NewAggregator(calculator),
	}
}

// SlotAt returns the slot index covering the given wall-clock time.
func (e *Engine) SlotAt(t time.Time) uint64 {
	return uint64(t.Unix()) / uint64(e.cfg.SlotDuration/time.Second)
}

// EpochOf returns the epoch the given slot belongs to.
func (e *Engine) EpochOf(slot uint64) uint64 {
	return slot / e.cfg.EpochSlots
}

// SubmitProof validates the given work proof and persists it when it is
// acceptable. It returns whether the proof was accepted. Rejected proofs are
// never persisted; an error is only returned, when persisting an accepted
// proof failed. The proof becomes eligible for tallies from the next tally
// cycle onward, not retroactively within the current one.
func (e *Engine) SubmitProof(ctx context.Context, proof *db.WorkProof) (bool, error) {
	ok, reason := credit.Validate(proof)
	if !ok {
		log.Debugf("rejected a work proof: %s", reason)
		return false, nil
	}
	if proof.SubmittedAt.IsZero() {
		proof.SubmittedAt = time.Now()
	}
	err := e.db.WriteProof(ctx, proof)
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetSchedule gets the leader schedule of the given slot, or nil, if no
// schedule has been written for it.
func (e *Engine) GetSchedule(ctx context.Context, slot uint64) (*db.LeaderSchedule, error) {
	return e.db.GetSchedule(ctx, slot)
}

// GetTallies gets the ranked credit tallies of the given epoch.
func (e *Engine) GetTallies(ctx context.Context, epoch uint64) ([]db.CreditTally, error) {
	return e.db.GetTallies(ctx, epoch)
}

// RecordOutcome records the observed block-production outcome for the given
// slot. An outcome of db.OutcomePending asks the engine to classify the
// winner against the stored schedule instead.
func (e *Engine) RecordOutcome(ctx context.Context, slot uint64, winner string, outcome db.OutcomeStatus) error {
	if outcome == db.OutcomePending {
		schedule, err := e.db.GetSchedule(ctx, slot)
		if err != nil {
			return err
		}
		if schedule == nil {
			return db.NotFoundError
		}
		outcome = classifyWinner(schedule, winner)
	}
	return e.db.RecordOutcome(ctx, slot, winner, outcome)
}

// classifyWinner derives the outcome status from the observed winner and the
// stored schedule.
func classifyWinner(schedule *db.LeaderSchedule, winner string) db.OutcomeStatus {
	if winner == "" {
		return db.OutcomeMissed
	}
	if winner == schedule.Primary {
		return db.OutcomePrimaryProduced
	}
	for _, fallback := range schedule.Fallbacks {
		if winner == fallback {
			return db.OutcomeFallbackProduced
		}
	}
	return db.OutcomeForeignProduced
}

// SelectSlot elects and persists the leader schedule for the given slot. The
// operation is idempotent: a slot that already carries a schedule yields the
// persisted one unchanged. Write conflicts with concurrent engine instances
// are harmless, selection is deterministic given the same committed data.
func (e *Engine) SelectSlot(ctx context.Context, slot uint64) *db.LeaderSchedule {
	existing, err := e.db.GetSchedule(ctx, slot)
	if err == nil && existing != nil {
		return existing
	}
	schedule := e.selector.Select(ctx, slot, e.EpochOf(slot))
	err = e.db.WriteSchedule(ctx, schedule)
	if err != nil {
		log.Errorf("the schedule for slot=%d couldn't be persisted", slot)
		return schedule
	}
	log.Infof("elected '%s' as leader for slot=%d with %d fallbacks (reason=%d)", schedule.Primary,
		schedule.Slot, len(schedule.Fallbacks), schedule.Reason)
	return schedule
}

// RecomputeTally aggregates the trailing proof window into the tallies of
// the current epoch, replacing any prior tally for that epoch. A failed read
// leaves the prior tallies untouched; the next cycle retries.
func (e *Engine) RecomputeTally(ctx context.Context) error {
	now := time.Now()
	windowStart := now.Add(-e.cfg.LeaderWindow)
	proofs, err := e.db.GetProofsSince(ctx, windowStart)
	if err != nil {
		return err
	}
	epoch := e.EpochOf(e.SlotAt(now))
	tallies := e.aggregator.Tally(epoch, proofs)
	err = e.db.WriteTallies(ctx, epoch, tallies)
	if err != nil {
		return err
	}
	log.Infof("tallied [%d] proofs into [%d] entities for epoch=%d", len(proofs), len(tallies), epoch)
	return nil
}

// Run starts the slot loop and the tally loop and blocks until the given
// context is cancelled. The loops are supervised independently; a panic in
// one iteration is logged and doesn't terminate the other loop.
func (e *Engine) Run(ctx context.Context) {
	log.Infof("started the consensus engine (slot=%v, epoch=%d slots, tally every %v)", e.cfg.SlotDuration,
		e.cfg.EpochSlots, e.cfg.TallyInterval)
	go e.runSlotLoop(ctx)
	go e.runTallyLoop(ctx)
	<-ctx.Done()
}

// runSlotLoop invokes slot selection on every slot boundary, derived from
// wall-clock time.
func (e *Engine) runSlotLoop(ctx context.Context) {
	for {
		now := time.Now()
		boundary := e.nextSlotBoundary(now)
		timer := time.NewTimer(boundary.Sub(now))
		select {
		case <-timer.C:
			e.slotTick(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
		timer.Stop()
	}
}

// nextSlotBoundary returns the wall-clock time at which the slot after the
// one covering t begins.
func (e *Engine) nextSlotBoundary(t time.Time) time.Time {
	seconds := int64(e.cfg.SlotDuration / time.Second)
	return time.Unix((t.Unix()/seconds+1)*seconds, 0)
}

// slotTick runs one iteration of the slot loop. Store operations are bounded
// by the configured store timeout; a stalled store degrades the slot to an
// emergency schedule inside the selector instead of wedging the loop.
func (e *Engine) slotTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("the slot loop recovered from a panic: %v", r)
		}
	}()
	opCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()
	e.SelectSlot(opCtx, e.SlotAt(time.Now()))
}

// runTallyLoop recomputes the tallies on the configured cadence. It runs
// once immediately, so a freshly started engine doesn't wait a full interval
// for its first tally, and additionally on every epoch boundary, so a new
// epoch isn't left without a tally until the next scheduled tick.
func (e *Engine) runTallyLoop(ctx context.Context) {
	e.tallyTick(ctx)
	for {
		now := time.Now()
		wait := e.cfg.TallyInterval
		if untilEpoch := e.nextEpochBoundary(now).Sub(now); untilEpoch < wait {
			wait = untilEpoch
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			e.tallyTick(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
		timer.Stop()
	}
}

// nextEpochBoundary returns the wall-clock time at which the epoch after the
// one covering t begins.
func (e *Engine) nextEpochBoundary(t time.Time) time.Time {
	epochSeconds := int64(e.cfg.SlotDuration/time.Second) * int64(e.cfg.EpochSlots)
	return time.Unix((t.Unix()/epochSeconds+1)*epochSeconds, 0)
}

// tallyTick runs one iteration of the tally loop. Failures are logged and
// retried on the next scheduled tick.
func (e *Engine) tallyTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("the tally loop recovered from a panic: %v", r)
		}
	}()
	opCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()
	err := e.RecomputeTally(opCtx)
	if err != nil {
		log.Errorf("the tally recomputation failed and will be retried on the next tick: %s", err.Error())
	}
}
