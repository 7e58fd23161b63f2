package sqlite

import (
	"context"
	"database/sql"
)

func createTables(sqlDB *sql.DB) error {
	ctx := context.Background()
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	err = createWorkProofTable(tx, ctx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	err = createCreditTallyTable(tx, ctx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	err = createLeaderScheduleTable(tx, ctx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func createWorkProofTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE WorkProof (
	entity VARCHAR(128) NOT NULL,
	slot INTEGER NOT NULL,
	kind INTEGER NOT NULL,
	pool VARCHAR(128) NOT NULL DEFAULT '',
	payload TEXT NOT NULL,
	signature BLOB NOT NULL,
	submittedAt TIMESTAMP NOT NULL,
	PRIMARY KEY (entity, slot, kind)
);
CREATE INDEX WorkProofSubmittedAt ON WorkProof (submittedAt);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}

func createCreditTallyTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE CreditTally (
	epoch INTEGER NOT NULL,
	entity VARCHAR(128) NOT NULL,
	credits INTEGER NOT NULL,
	relayCredits INTEGER NOT NULL,
	storageCredits INTEGER NOT NULL,
	validationCredits INTEGER NOT NULL,
	uptimeCredits INTEGER NOT NULL,
	proofCount INTEGER NOT NULL,
	liveScore DECIMAL(4,3) NOT NULL,
	rank INTEGER NOT NULL,
	PRIMARY KEY (epoch, entity)
);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}

func createLeaderScheduleTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE LeaderSchedule (
	slot INTEGER NOT NULL PRIMARY KEY,
	epoch INTEGER NOT NULL,
	leader VARCHAR(128) NOT NULL,
	fallbacks TEXT NOT NULL,
	reason INTEGER NOT NULL,
	seed VARCHAR(128) NOT NULL,
	deadline TIMESTAMP NOT NULL,
	createdAt TIMESTAMP NOT NULL,
	winner VARCHAR(128) NOT NULL DEFAULT '',
	outcome INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX LeaderScheduleLeader ON LeaderSchedule (leader, slot);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}
