package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// snapshotRepo implements SnapshotRepo over the snapshots table.
type snapshotRepo struct {
	db *sql.DB
}

func (r *snapshotRepo) Save(ctx context.Context, snap *SessionSnapshot) error {
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO snapshots (session_id, timestamp, data) VALUES (?, ?, ?)`,
		snap.SessionID, ts.Unix(), snap.Data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context) (*SessionSnapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, timestamp, data
		 FROM snapshots ORDER BY timestamp DESC, id DESC LIMIT 1`)

	var snap SessionSnapshot
	var ts int64
	err := row.Scan(&snap.ID, &snap.SessionID, &ts, &snap.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	snap.Timestamp = time.Unix(ts, 0).UTC()
	return &snap, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY timestamp DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
