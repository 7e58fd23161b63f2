package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
	log "github.com/sirupsen/logrus"
)

// scanProof scans the current row of the given result set into a work proof.
// The row must carry the full column set of the WorkProof table.
func scanProof(rows *sql.Rows) (*db.WorkProof, error) {
	proof := db.WorkProof{}
	var payload string
	err := rows.Scan(&proof.Entity, &proof.Slot, &proof.Kind, &proof.Pool, &payload, &proof.Signature,
		&proof.SubmittedAt)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal([]byte(payload), &proof.Payload)
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

// queryAndScanProofs queries for work proofs with the specified query and
// scans the result set. If the scanning has been successful, then an array of
// work proofs is returned. Otherwise, an error will be returned, if the
// querying or the scanning fails.
func (l *SQLiteDB) queryAndScanProofs(ctx context.Context, query string, args ...interface{}) ([]db.WorkProof, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	proofs := make([]db.WorkProof, 0)
	for rows.Next() {
		proof, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, *proof)
	}
	return proofs, nil
}

func (l *SQLiteDB) GetProofsSince(ctx context.Context, since time.Time) ([]db.WorkProof, error) {
	proofs, err := l.queryAndScanProofs(ctx, `
SELECT entity, slot, kind, pool, payload, signature, submittedAt FROM WorkProof
WHERE submittedAt >= ?
ORDER BY submittedAt ASC;
`, since)
	if err != nil {
		log.Errorf("querying the proofs since=%v failed: %s", since, err.Error())
		return nil, db.ReadError
	}
	return proofs, nil
}

func (l *SQLiteDB) GetProof(ctx context.Context, entity string, slot uint64,
	kind db.ProofKind) (*db.WorkProof, error) {
	proofs, err := l.queryAndScanProofs(ctx, `
SELECT entity, slot, kind, pool, payload, signature, submittedAt FROM WorkProof
WHERE entity = ? and slot = ? and kind = ?;
`, entity, slot, kind)
	if err != nil {
		log.Errorf("querying the proof (%s,%d,%d) failed: %s", entity, slot, kind, err.Error())
		return nil, db.ReadError
	}
	if len(proofs) == 0 {
		return nil, nil
	}
	return &proofs[0], nil
}

func (l *SQLiteDB) GetTallies(ctx context.Context, epoch uint64) ([]db.CreditTally, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT epoch, entity, credits, relayCredits, storageCredits, validationCredits, uptimeCredits, proofCount,
	liveScore, rank
FROM CreditTally
WHERE epoch = ?
ORDER BY credits DESC, rank ASC;
`, epoch)
	if err != nil {
		log.Errorf("querying the tallies of epoch=%d failed: %s", epoch, err.Error())
		return nil, db.ReadError
	}
	defer rows.Close()
	tallies := make([]db.CreditTally, 0)
	for rows.Next() {
		tally := db.CreditTally{}
		err = rows.Scan(&tally.Epoch, &tally.Entity, &tally.Credits, &tally.RelayCredits,
			&tally.StorageCredits, &tally.ValidationCredits, &tally.UptimeCredits, &tally.ProofCount,
			&tally.LiveScore, &tally.Rank)
		if err != nil {
			log.Errorf("scanning the tallies of epoch=%d failed: %s", epoch, err.Error())
			return nil, db.ReadError
		}
		tallies = append(tallies, tally)
	}
	return tallies, nil
}

// scanSchedule scans the current row of the given result set into a leader
// schedule. The row must carry the full column set of the LeaderSchedule
// table.
func scanSchedule(rows *sql.Rows) (*db.LeaderSchedule, error) {
	schedule := db.LeaderSchedule{}
	var fallbacks, seed string
	err := rows.Scan(&schedule.Slot, &schedule.Epoch, &schedule.Primary, &fallbacks, &schedule.Reason, &seed,
		&schedule.Deadline, &schedule.CreatedAt, &schedule.Winner, &schedule.Outcome)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal([]byte(fallbacks), &schedule.Fallbacks)
	if err != nil {
		return nil, err
	}
	schedule.Seed, err = hex.DecodeString(seed)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// queryAndScanSchedules queries for leader schedules with the specified query
// and scans the result set. If the scanning has been successful, then an
// array of leader schedules is returned. Otherwise, an error will be
// returned, if the querying or the scanning fails.
func (l *SQLiteDB) queryAndScanSchedules(ctx context.Context, query string,
	args ...interface{}) ([]db.LeaderSchedule, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	schedules := make([]db.LeaderSchedule, 0)
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, nil
}

func (l *SQLiteDB) GetSchedule(ctx context.Context, slot uint64) (*db.LeaderSchedule, error) {
	schedules, err := l.queryAndScanSchedules(ctx, `
SELECT slot, epoch, leader, fallbacks, reason, seed, deadline, createdAt, winner, outcome FROM LeaderSchedule
WHERE slot = ?;
`, slot)
	if err != nil {
		log.Errorf("querying the schedule of slot=%d failed: %s", slot, err.Error())
		return nil, db.ReadError
	}
	if len(schedules) == 0 {
		return nil, nil
	}
	return &schedules[0], nil
}

func (l *SQLiteDB) GetSchedulesInRange(ctx context.Context, from, to uint64) ([]db.LeaderSchedule, error) {
	schedules, err := l.queryAndScanSchedules(ctx, `
SELECT slot, epoch, leader, fallbacks, reason, seed, deadline, createdAt, winner, outcome FROM LeaderSchedule
WHERE slot >= ? and slot < ?
ORDER BY slot ASC;
`, from, to)
	if err != nil {
		log.Errorf("querying the schedules of slots [%d,%d) failed: %s", from, to, err.Error())
		return nil, db.ReadError
	}
	return schedules, nil
}

func (l *SQLiteDB) LastSlotLedBy(ctx context.Context, entity string, slot uint64) (*uint64, error) {
	row := l.db.QueryRowContext(ctx, `
SELECT slot FROM LeaderSchedule
WHERE leader = ? and slot <= ?
ORDER BY slot DESC
LIMIT 1;
`, entity, slot)
	var lastSlot uint64
	err := row.Scan(&lastSlot)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Errorf("querying the last slot led by '%s' at or before slot=%d failed: %s", entity, slot,
			err.Error())
		return nil, db.ReadError
	}
	return &lastSlot, nil
}

func (l *SQLiteDB) GetUnresolvedSchedulesBefore(ctx context.Context, deadline time.Time,
	limit uint) ([]db.LeaderSchedule, error) {
	schedules, err := l.queryAndScanSchedules(ctx, `
SELECT slot, epoch, leader, fallbacks, reason, seed, deadline, createdAt, winner, outcome FROM LeaderSchedule
WHERE outcome = ? and deadline < ?
ORDER BY slot ASC
LIMIT ?;
`, db.OutcomePending, deadline, limit)
	if err != nil {
		log.Errorf("querying the unresolved schedules before=%v failed: %s", deadline, err.Error())
		return nil, db.ReadError
	}
	return schedules, nil
}
