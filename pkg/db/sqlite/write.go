package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
	log "github.com/sirupsen/logrus"
)

func (l *SQLiteDB) WriteProof(ctx context.Context, proof *db.WorkProof) error {
	payload, err := json.Marshal(proof.Payload)
	if err != nil {
		log.Errorf("couldn't serialize the payload of the proof (%s,%d,%d): %s", proof.Entity, proof.Slot,
			proof.Kind, err.Error())
		return db.WriteError
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to write the proof (%s,%d,%d): %s", proof.Entity, proof.Slot,
			proof.Kind, err.Error())
		return db.WriteError
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO WorkProof (entity, slot, kind, pool, payload, signature, submittedAt) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (entity, slot, kind) DO UPDATE
SET pool = excluded.pool, payload = excluded.payload, signature = excluded.signature,
	submittedAt = excluded.submittedAt;
`, proof.Entity, proof.Slot, proof.Kind, proof.Pool, string(payload), proof.Signature, proof.SubmittedAt)
	if err != nil {
		_ = tx.Rollback()
		log.Errorf("inserting the proof (%s,%d,%d) failed: %s", proof.Entity, proof.Slot, proof.Kind,
			err.Error())
		return db.WriteError
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	return nil
}

func (l *SQLiteDB) WriteTallies(ctx context.Context, epoch uint64, tallies []db.CreditTally) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to write the tallies of epoch '%d': %s", epoch, err.Error())
		return db.WriteError
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM CreditTally WHERE epoch = ?;`, epoch)
	if err != nil {
		_ = tx.Rollback()
		log.Errorf("clearing the prior tallies of epoch '%d' failed: %s", epoch, err.Error())
		return db.WriteError
	}
	insertTallyStmt, err := tx.Prepare(`
INSERT INTO CreditTally (epoch, entity, credits, relayCredits, storageCredits, validationCredits, uptimeCredits,
	proofCount, liveScore, rank) VALUES (?,?,?,?,?,?,?,?,?,?);
`)
	if err != nil {
		_ = tx.Rollback()
		log.Errorf("preparing the query for tally insertion for epoch '%d' failed: %s", epoch, err.Error())
		return db.WriteError
	}
	for _, tally := range tallies {
		_, err = insertTallyStmt.ExecContext(ctx, epoch, tally.Entity, tally.Credits, tally.RelayCredits,
			tally.StorageCredits, tally.ValidationCredits, tally.UptimeCredits, tally.ProofCount,
			tally.LiveScore, tally.Rank)
		if err != nil {
			_ = tx.Rollback()
			log.Errorf("tally insertion for epoch '%d' failed: %s", epoch, err.Error())
			return db.WriteError
		}
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	go l.obv.Pub(db.ObserverMessage{Code: db.ObserveNewTally, Response: epoch})
	return nil
}

func (l *SQLiteDB) WriteSchedule(ctx context.Context, schedule *db.LeaderSchedule) error {
	fallbacks, err := json.Marshal(schedule.Fallbacks)
	if err != nil {
		log.Errorf("couldn't serialize the fallbacks of the schedule for slot '%d': %s", schedule.Slot,
			err.Error())
		return db.WriteError
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to write the schedule for slot '%d': %s", schedule.Slot,
			err.Error())
		return db.WriteError
	}
	result, err := tx.ExecContext(ctx, `
INSERT INTO LeaderSchedule (slot, epoch, leader, fallbacks, reason, seed, deadline, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (slot) DO NOTHING;
`, schedule.Slot, schedule.Epoch, schedule.Primary, string(fallbacks), schedule.Reason,
		hex.EncodeToString(schedule.Seed), schedule.Deadline, schedule.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		log.Errorf("inserting the schedule for slot '%d' failed: %s", schedule.Slot, err.Error())
		return db.WriteError
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		log.Errorf("couldn't check the schedule insertion for slot '%d': %s", schedule.Slot, err.Error())
		return db.WriteError
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	if inserted > 0 {
		go l.obv.Pub(db.ObserverMessage{Code: db.ObserveNewSchedule, Response: schedule.Slot})
	}
	return nil
}

func (l *SQLiteDB) RecordOutcome(ctx context.Context, slot uint64, winner string, outcome db.OutcomeStatus) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to record the outcome of slot '%d': %s", slot, err.Error())
		return db.WriteError
	}
	var storedOutcome db.OutcomeStatus
	row := tx.QueryRowContext(ctx, `SELECT outcome FROM LeaderSchedule WHERE slot = ?;`, slot)
	err = row.Scan(&storedOutcome)
	if err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return db.NotFoundError
		}
		log.Errorf("querying the schedule for slot '%d' failed: %s", slot, err.Error())
		return db.ReadError
	}
	if storedOutcome != db.OutcomePending {
		_ = tx.Rollback()
		return db.ConflictError
	}
	_, err = tx.ExecContext(ctx, `UPDATE LeaderSchedule SET winner = ?, outcome = ? WHERE slot = ?;`,
		winner, outcome, slot)
	if err != nil {
		_ = tx.Rollback()
		log.Errorf("recording the outcome=%d of slot '%d' failed: %s", outcome, slot, err.Error())
		return db.WriteError
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	go l.obv.Pub(db.ObserverMessage{Code: db.ObserveRecordedOutcome, Response: slot})
	return nil
}
