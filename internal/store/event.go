package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter manages the global monotonic sequence number of the
// activity log. It gives every applied event a single increasing position
// across learners, so the log can be read back in apply order.
//
// Uses raw SQL outside ent because ent doesn't support database-level atomic
// counters. The mutex serializes within the process; the RETURNING clause
// makes the increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo over the activity_events table.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *eventRepo) AppendActivity(ctx context.Context, rec *ActivityRecord) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	var payload any
	if len(rec.Payload) > 0 {
		payload = string(rec.Payload)
	}
	query, args := builder().Insert(ActivityEventsTable.Name).
		Columns("sequence", "learner_id", "kind", "event_key", "xp_awarded", "timestamp", "payload").
		Values(seq, rec.LearnerID, rec.Kind, rec.Key, rec.XPAwarded, formatTime(rec.Timestamp), payload).
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	rec.Sequence = seq
	return nil
}

func (r *eventRepo) Activities(ctx context.Context, learnerID string, opts QueryOpts) ([]ActivityRecord, error) {
	preds := []*entsql.Predicate{entsql.EQ("learner_id", learnerID)}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", formatTime(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", formatTime(opts.To)))
	}

	sel := builder().
		Select("sequence", "learner_id", "kind", "event_key", "xp_awarded", "timestamp", "payload").
		From(entsql.Table(ActivityEventsTable.Name)).
		Where(entsql.And(preds...)).
		OrderBy("sequence")
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []ActivityRecord
	for rows.Next() {
		var (
			rec     ActivityRecord
			ts      string
			payload sql.NullString
		)
		if err := rows.Scan(&rec.Sequence, &rec.LearnerID, &rec.Kind, &rec.Key, &rec.XPAwarded, &ts, &payload); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		t, err := parseTime(ts)
		if err != nil {
			return nil, fmt.Errorf("parse activity timestamp: %w", err)
		}
		rec.Timestamp = t
		if payload.Valid {
			rec.Payload = []byte(payload.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) DeleteActivities(ctx context.Context, learnerID string) error {
	query, args := builder().Delete(ActivityEventsTable.Name).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete activities: %w", err)
	}
	return nil
}
