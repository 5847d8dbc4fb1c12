package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

// snapshotRepo implements SnapshotRepo using ent's SQL builders.
type snapshotRepo struct {
	drv *entsql.Driver
}

func builder() *entsql.DialectBuilder { return entsql.Dialect(dialect.SQLite) }

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	query, args := builder().Insert(SnapshotsTable.Name).
		Columns("learner_id", "sequence", "timestamp", "data").
		Values(snap.LearnerID, snap.Sequence, formatTime(snap.Timestamp), string(snap.Data)).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return fmt.Errorf("save snapshot %s#%d: %w", snap.LearnerID, snap.Sequence, ErrConflict)
		}
		return fmt.Errorf("save snapshot: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		snap.ID = id
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, learnerID string) (*Snapshot, error) {
	query, args := builder().
		Select("id", "learner_id", "sequence", "timestamp", "data").
		From(entsql.Table(SnapshotsTable.Name)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query latest snapshot: %w", err)
		}
		return nil, nil
	}
	var (
		s        Snapshot
		ts, data string
	)
	if err := rows.Scan(&s.ID, &s.LearnerID, &s.Sequence, &ts, &data); err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	// The timestamp column is informational. A row written by another tool
	// with an unreadable timestamp still carries a usable state blob.
	if t, err := parseTime(ts); err == nil {
		s.Timestamp = t
	}
	s.Data = []byte(data)
	return &s, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, learnerID string, keep int) error {
	// Find the sequence threshold: the Nth most recent snapshot.
	query, args := builder().
		Select("sequence").
		From(entsql.Table(SnapshotsTable.Name)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}
	var threshold int64
	found := rows.Next()
	if found {
		if err := rows.Scan(&threshold); err != nil {
			rows.Close()
			return fmt.Errorf("scan prune threshold: %w", err)
		}
	}
	rows.Close()
	if !found {
		return nil // fewer than keep snapshots exist
	}

	query, args = builder().Delete(SnapshotsTable.Name).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.LTE("sequence", threshold),
		)).
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Delete(ctx context.Context, learnerID string) error {
	query, args := builder().Delete(SnapshotsTable.Name).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Learners(ctx context.Context) ([]string, error) {
	query, args := builder().
		Select("learner_id").
		Distinct().
		From(entsql.Table(SnapshotsTable.Name)).
		OrderBy("learner_id").
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query learners: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan learner: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
