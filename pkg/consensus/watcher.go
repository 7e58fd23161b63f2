package consensus

import (
	"context"
	"time"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// watcherBatchSize is the number of overdue schedules resolved per scan page.
const watcherBatchSize = 16

// Watcher is a service, which scans for leader schedules whose deadline has
// passed while their block-production outcome is still pending, and marks
// them as missed. It completes the schedule lifecycle for slots whose
// downstream block-production layer never reported back.
type Watcher struct {
	db           db.DB
	interval     time.Duration
	grace        time.Duration
	storeTimeout time.Duration
	listener     chan db.ObserverMessage
}

// NewWatcher is creating a new Watcher scanning on the given interval. A
// schedule is only marked as missed once its deadline lies more than the
// given grace period in the past, leaving the downstream layer room to
// report a late outcome. Every single store operation is bounded by the
// given store timeout.
func NewWatcher(idb db.DB, interval, grace, storeTimeout time.Duration) *Watcher {
	listener := make(chan db.ObserverMessage, watcherBatchSize)
	idb.Observer().Sub(listener)
	return &Watcher{
		db:           idb,
		interval:     interval,
		grace:        grace,
		storeTimeout: storeTimeout,
		listener:     listener,
	}
}

// Run starts this watcher. This method is blocking.
func (w *Watcher) Run(ctx context.Context) {
	log.Infof("started to watch for overdue schedules every %v", w.interval)
	for {
		timer := time.NewTimer(w.interval)
		select {
		case msg := <-w.listener:
			if msg.Code == db.ObserveRecordedOutcome {
				log.Debugf("the outcome of slot=%v has been recorded downstream", msg.Response)
			}
		case <-timer.C:
			w.scanOverdue(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
		timer.Stop()
	}
}

// scanOverdue pages through the overdue schedules and marks each as missed.
// The store read is retried with exponential backoff, so a transient store
// failure doesn't lose the scan cycle. A page on which no schedule could be
// resolved ends the cycle, since re-reading would yield the identical page;
// the next scheduled scan retries.
func (w *Watcher) scanOverdue(ctx context.Context) {
	cutoff := time.Now().Add(-w.grace)
	for {
		var schedules []db.LeaderSchedule
		operation := func() error {
			opCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
			defer cancel()
			var err error
			schedules, err = w.db.GetUnresolvedSchedulesBefore(opCtx, cutoff, watcherBatchSize)
			return err
		}
		err := backoff.Retry(operation,
			backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx))
		if err != nil {
			log.Errorf("couldn't scan the overdue schedules: %s", err.Error())
			return
		}
		resolved := 0
		for i := range schedules {
			if w.markMissed(ctx, &schedules[i]) {
				resolved++
			}
		}
		if resolved == 0 || len(schedules) != watcherBatchSize {
			return
		}
	}
}

// markMissed records the missed outcome for the given overdue schedule and
// reports whether the schedule is resolved now. A conflict means the
// downstream layer won the race and reported the real outcome in the
// meantime, which counts as resolved as well.
func (w *Watcher) markMissed(ctx context.Context, schedule *db.LeaderSchedule) bool {
	opCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()
	err := w.db.RecordOutcome(opCtx, schedule.Slot, "", db.OutcomeMissed)
	if err != nil {
		if err == db.ConflictError {
			return true
		}
		log.Errorf("couldn't mark the schedule of slot=%d as missed: %s", schedule.Slot, err.Error())
		return false
	}
	log.Infof("marked the schedule of slot=%d (primary '%s') as missed, its deadline %v passed unresolved",
		schedule.Slot, schedule.Primary, schedule.Deadline)
	return true
}
