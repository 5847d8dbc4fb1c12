package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrConflict is returned when a snapshot with the same learner and sequence
// already exists, meaning another writer saved first.
var ErrConflict = errors.New("snapshot sequence conflict")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Snapshot is a point-in-time capture of one learner's state document.
type Snapshot struct {
	ID        int64
	LearnerID string
	Sequence  int64
	Timestamp time.Time
	Data      json.RawMessage
}

// SnapshotRepo manages learner state snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot. Returns ErrConflict if the learner already
	// has a snapshot with the same sequence.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the learner's most recent snapshot, or nil if none exist.
	Latest(ctx context.Context, learnerID string) (*Snapshot, error)

	// Prune deletes all but the learner's N most recent snapshots.
	Prune(ctx context.Context, learnerID string, keep int) error

	// Delete removes every snapshot of the learner.
	Delete(ctx context.Context, learnerID string) error

	// Learners lists learner ids that have at least one snapshot.
	Learners(ctx context.Context) ([]string, error)
}

// ActivityRecord is one applied learning event in the audit log.
type ActivityRecord struct {
	Sequence  int64
	LearnerID string
	Kind      string
	Key       string
	XPAwarded int
	Timestamp time.Time
	Payload   json.RawMessage
}

// EventRepo provides append and query access to the activity log.
type EventRepo interface {
	// AppendActivity records an applied event and assigns its sequence.
	AppendActivity(ctx context.Context, rec *ActivityRecord) error

	// Activities returns the learner's events in sequence order.
	Activities(ctx context.Context, learnerID string, opts QueryOpts) ([]ActivityRecord, error)

	// DeleteActivities removes the learner's activity log.
	DeleteActivities(ctx context.Context, learnerID string) error
}
