package gamification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/medilearn/healthxp/internal/achievements"
	"github.com/medilearn/healthxp/internal/activity"
	"github.com/medilearn/healthxp/internal/exchange"
	"github.com/medilearn/healthxp/internal/logger"
	"github.com/medilearn/healthxp/internal/progress"
	"github.com/medilearn/healthxp/internal/rewards"
	"github.com/medilearn/healthxp/internal/store"
)

// Config configures a Service.
type Config struct {
	Retry store.RetryPolicy
	// SnapshotRetention is how many snapshots per learner are kept. Zero
	// disables pruning.
	SnapshotRetention int
	// DefaultTimezone seeds the settings of new learners.
	DefaultTimezone string
	ModulesFor      func(specialty string) int
	Logger          *logger.Logger
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Result is what a Service operation reports back to the caller.
type Result struct {
	State         progress.State
	XPAwarded     int
	Achievements  []progress.UnlockedAchievement
	Rewards       []progress.UnlockedReward
	Notifications []Notification
	// Applied and Duplicates count events folded in and skipped.
	Applied    int
	Duplicates int
	// Warnings are non-fatal problems, such as a stored state that could not
	// be read and was replaced by a fresh one.
	Warnings []string
}

// Service owns the durable state of every learner. Mutations of one learner
// are serialized; reads of one learner may run together.
type Service struct {
	snapRepo  store.SnapshotRepo
	eventRepo store.EventRepo
	cfg       Config
	opts      Options
	log       *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewService creates a Service. eventRepo may be nil to skip the activity log.
func NewService(snapRepo store.SnapshotRepo, eventRepo store.EventRepo, cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = store.DefaultRetryPolicy()
	}
	opts := Options{
		Achievements: achievements.NewEvaluator(log),
		Rewards:      rewards.NewEngine(log),
		ModulesFor:   cfg.ModulesFor,
	}.withDefaults()
	return &Service{
		snapRepo:  snapRepo,
		eventRepo: eventRepo,
		cfg:       cfg,
		opts:      opts,
		log:       log.With("component", "gamification"),
		locks:     make(map[string]*sync.RWMutex),
	}
}

// TrackModuleCompletion records a completed module.
func (s *Service) TrackModuleCompletion(ctx context.Context, learnerID string, e activity.ModuleCompleted) (*Result, error) {
	return s.Track(ctx, learnerID, e)
}

// TrackQuizCompletion records a graded quiz.
func (s *Service) TrackQuizCompletion(ctx context.Context, learnerID string, e activity.QuizCompleted) (*Result, error) {
	return s.Track(ctx, learnerID, e)
}

// TrackLogin records a session start.
func (s *Service) TrackLogin(ctx context.Context, learnerID string, e activity.Login) (*Result, error) {
	return s.Track(ctx, learnerID, e)
}

// TrackLabReview records a reviewed lab result.
func (s *Service) TrackLabReview(ctx context.Context, learnerID string, e activity.LabReviewed) (*Result, error) {
	return s.Track(ctx, learnerID, e)
}

// TrackContentShare records a shared article.
func (s *Service) TrackContentShare(ctx context.Context, learnerID string, e activity.ContentShared) (*Result, error) {
	return s.Track(ctx, learnerID, e)
}

// CompleteTeachingSession scores and records a teach-back session.
func (s *Service) CompleteTeachingSession(ctx context.Context, learnerID string, e activity.TeachingSession) (*Result, error) {
	return s.Track(ctx, learnerID, e)
}

// Track applies a single event of any type.
func (s *Service) Track(ctx context.Context, learnerID string, e activity.Event) (*Result, error) {
	return s.applyEvents(ctx, learnerID, []activity.Event{e})
}

// SyncWithEducationModule merges a batch of externally reported events in
// arrival order. The batch is validated first; if any event is invalid
// nothing is applied. Events applied before are skipped.
func (s *Service) SyncWithEducationModule(ctx context.Context, learnerID string, events []activity.Event) (*Result, error) {
	return s.applyEvents(ctx, learnerID, events)
}

func (s *Service) applyEvents(ctx context.Context, learnerID string, events []activity.Event) (*Result, error) {
	if learnerID == "" {
		return nil, ErrLearnerRequired
	}
	if err := activity.ValidateBatch(events); err != nil {
		return nil, err
	}

	lock := s.lockFor(learnerID)
	lock.Lock()
	defer lock.Unlock()

	ld, err := s.load(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	st := ld.state
	res := &Result{Warnings: ld.warnings}
	now := s.cfg.Now()
	var (
		records  []store.ActivityRecord
		outcomes []Outcome
	)
	for _, e := range events {
		next, out, err := Apply(st, e, now, s.opts)
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", e.Kind(), err)
		}
		outcomes = append(outcomes, out)
		if out.Duplicate {
			res.Duplicates++
			continue
		}
		st = next
		res.Applied++
		res.XPAwarded += out.XPAwarded
		for _, u := range out.Achievements {
			res.Achievements = append(res.Achievements, u.Unlocked)
		}
		for _, u := range out.Rewards {
			res.Rewards = append(res.Rewards, u.Unlocked)
		}
		if st.Settings.NotificationsEnabled {
			res.Notifications = append(res.Notifications, out.Notifications...)
		}
		records = append(records, activityRecord(learnerID, e, out))
	}
	res.State = st

	if res.Applied > 0 {
		if err := s.persist(ctx, learnerID, st, ld.seq); err != nil {
			return res, err
		}
	}
	// Counters are recorded only once the state is saved.
	for _, out := range outcomes {
		recordOutcome(out)
	}
	if res.Applied == 0 {
		return res, nil
	}
	s.appendActivities(ctx, records)

	s.log.Info("events applied",
		"learner_id", learnerID,
		"applied", res.Applied,
		"duplicates", res.Duplicates,
		"xp", res.XPAwarded,
		"achievements", len(res.Achievements),
		"rewards", len(res.Rewards),
	)
	return res, nil
}

// State returns the learner's current state. A learner with no stored
// state gets a fresh one, which is not saved.
func (s *Service) State(ctx context.Context, learnerID string) (*Result, error) {
	ld, err := s.read(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return &Result{State: ld.state, Warnings: ld.warnings}, nil
}

// LockedRewards reports the distance to every reward not yet earned.
func (s *Service) LockedRewards(ctx context.Context, learnerID string) ([]rewards.LockedProgress, error) {
	ld, err := s.read(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	st := ld.state
	return s.opts.Rewards.LockedProgress(rewards.ContextFrom(&st.Progress, st.AchievementSet()), st.RewardSet()), nil
}

// AchievementProgress reports partial progress toward locked achievements.
func (s *Service) AchievementProgress(ctx context.Context, learnerID string) (map[string]achievements.Progress, error) {
	ld, err := s.read(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	st := ld.state
	return s.opts.Achievements.Progress(achievements.Snapshot{Progress: &st.Progress}, st.AchievementSet()), nil
}

// History returns the learner's most recent applied events, oldest first.
func (s *Service) History(ctx context.Context, learnerID string, opts store.QueryOpts) ([]store.ActivityRecord, error) {
	if learnerID == "" {
		return nil, ErrLearnerRequired
	}
	if s.eventRepo == nil {
		return nil, nil
	}
	lock := s.lockFor(learnerID)
	lock.RLock()
	defer lock.RUnlock()
	return s.eventRepo.Activities(ctx, learnerID, opts)
}

// Learners lists every learner with stored state.
func (s *Service) Learners(ctx context.Context) ([]string, error) {
	return s.snapRepo.Learners(ctx)
}

// ExportGamificationData returns the learner's full state as JSON.
func (s *Service) ExportGamificationData(ctx context.Context, learnerID string) ([]byte, error) {
	ld, err := s.read(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return exchange.Export(ld.state)
}

// ImportGamificationData replaces the learner's state with an exported
// document. An invalid document is rejected without touching stored state.
func (s *Service) ImportGamificationData(ctx context.Context, learnerID string, data []byte) (*Result, error) {
	if learnerID == "" {
		return nil, ErrLearnerRequired
	}
	st, err := exchange.Import(data)
	if err != nil {
		return nil, err
	}
	if st.LearnerID != learnerID {
		return nil, &exchange.ImportError{
			Field: "learnerId",
			Err:   errors.New("document belongs to another learner"),
		}
	}

	lock := s.lockFor(learnerID)
	lock.Lock()
	defer lock.Unlock()

	seq, err := s.latestSeq(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, learnerID, st, seq); err != nil {
		return &Result{State: st}, err
	}
	s.log.Info("state imported", "learner_id", learnerID)
	return &Result{State: st}, nil
}

// UpdateSettings replaces the learner's preferences.
func (s *Service) UpdateSettings(ctx context.Context, learnerID string, settings progress.Settings) (*Result, error) {
	if learnerID == "" {
		return nil, ErrLearnerRequired
	}
	if settings.Timezone != "" {
		if _, err := time.LoadLocation(settings.Timezone); err != nil {
			return nil, &progress.FieldError{Field: "settings.timezone", Reason: "unknown timezone " + settings.Timezone}
		}
	}

	lock := s.lockFor(learnerID)
	lock.Lock()
	defer lock.Unlock()

	ld, err := s.load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	st := ld.state
	st.Settings = settings
	st.Progress.UpdatedAt = s.cfg.Now().UTC()
	res := &Result{State: st, Warnings: ld.warnings}
	if err := s.persist(ctx, learnerID, st, ld.seq); err != nil {
		return res, err
	}
	return res, nil
}

// Save persists a caller-held state, typically the one carried by a
// PersistError.
func (s *Service) Save(ctx context.Context, st progress.State) error {
	if st.LearnerID == "" {
		return ErrLearnerRequired
	}
	st.Normalize()
	if err := st.CheckInvariants(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	lock := s.lockFor(st.LearnerID)
	lock.Lock()
	defer lock.Unlock()

	seq, err := s.latestSeq(ctx, st.LearnerID)
	if err != nil {
		return err
	}
	return s.persist(ctx, st.LearnerID, st, seq)
}

// Reset deletes every stored trace of the learner.
func (s *Service) Reset(ctx context.Context, learnerID string) error {
	if learnerID == "" {
		return ErrLearnerRequired
	}
	lock := s.lockFor(learnerID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.snapRepo.Delete(ctx, learnerID); err != nil {
		return fmt.Errorf("reset learner: %w", err)
	}
	if s.eventRepo != nil {
		if err := s.eventRepo.DeleteActivities(ctx, learnerID); err != nil {
			return fmt.Errorf("reset learner: %w", err)
		}
	}
	s.log.Info("learner reset", "learner_id", learnerID)
	return nil
}

func (s *Service) lockFor(learnerID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[learnerID]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[learnerID] = l
	}
	return l
}

type loaded struct {
	state    progress.State
	seq      int64
	warnings []string
}

// read loads under the learner's read lock.
func (s *Service) read(ctx context.Context, learnerID string) (loaded, error) {
	if learnerID == "" {
		return loaded{}, ErrLearnerRequired
	}
	lock := s.lockFor(learnerID)
	lock.RLock()
	defer lock.RUnlock()
	return s.load(ctx, learnerID)
}

// load returns the learner's latest state. A stored state that cannot be
// read is replaced by a fresh one and reported as a warning.
func (s *Service) load(ctx context.Context, learnerID string) (loaded, error) {
	var snap *store.Snapshot
	err := store.Retry(ctx, s.cfg.Retry, func(ctx context.Context) error {
		var err error
		snap, err = s.snapRepo.Latest(ctx, learnerID)
		return err
	})
	if err != nil {
		return loaded{}, fmt.Errorf("load state: %w", err)
	}
	if snap == nil {
		return loaded{state: s.fresh(learnerID)}, nil
	}

	ld := loaded{seq: snap.Sequence}
	st, err := exchange.Import(snap.Data)
	switch {
	case err != nil:
		ld.warnings = append(ld.warnings, fmt.Sprintf("stored state unreadable, starting fresh: %v", err))
	case st.LearnerID != learnerID:
		err = errors.New("stored state belongs to another learner")
		ld.warnings = append(ld.warnings, "stored state unreadable, starting fresh: "+err.Error())
	}
	if err != nil {
		s.log.Warn("discarding stored state", "learner_id", learnerID, "sequence", snap.Sequence, "error", err)
		ld.state = s.fresh(learnerID)
		return ld, nil
	}
	ld.state = st
	return ld, nil
}

func (s *Service) latestSeq(ctx context.Context, learnerID string) (int64, error) {
	snap, err := s.snapRepo.Latest(ctx, learnerID)
	if err != nil {
		return 0, fmt.Errorf("load state: %w", err)
	}
	if snap == nil {
		return 0, nil
	}
	return snap.Sequence, nil
}

func (s *Service) fresh(learnerID string) progress.State {
	st := progress.NewState(learnerID, s.cfg.Now())
	if s.cfg.DefaultTimezone != "" {
		st.Settings.Timezone = s.cfg.DefaultTimezone
	}
	return st
}

// persist saves st as the snapshot after prevSeq, retrying transient
// failures, then prunes old snapshots.
func (s *Service) persist(ctx context.Context, learnerID string, st progress.State, prevSeq int64) error {
	data, err := exchange.Export(st)
	if err != nil {
		return &PersistError{LearnerID: learnerID, State: st, Err: err}
	}
	snap := &store.Snapshot{
		LearnerID: learnerID,
		Sequence:  prevSeq + 1,
		Timestamp: s.cfg.Now(),
		Data:      data,
	}
	err = store.Retry(ctx, s.cfg.Retry, func(ctx context.Context) error {
		return s.snapRepo.Save(ctx, snap)
	})
	if err != nil {
		persistFailures.Inc()
		s.log.Error("persist failed", "learner_id", learnerID, "sequence", snap.Sequence, "error", err)
		return &PersistError{LearnerID: learnerID, State: st, Err: err}
	}

	if s.cfg.SnapshotRetention > 0 {
		if err := s.snapRepo.Prune(ctx, learnerID, s.cfg.SnapshotRetention); err != nil {
			s.log.Warn("prune snapshots failed", "learner_id", learnerID, "error", err)
		}
	}
	return nil
}

func (s *Service) appendActivities(ctx context.Context, records []store.ActivityRecord) {
	if s.eventRepo == nil {
		return
	}
	for i := range records {
		if err := s.eventRepo.AppendActivity(ctx, &records[i]); err != nil {
			s.log.Warn("append activity failed", "learner_id", records[i].LearnerID, "kind", records[i].Kind, "error", err)
		}
	}
}

func activityRecord(learnerID string, e activity.Event, out Outcome) store.ActivityRecord {
	rec := store.ActivityRecord{
		LearnerID: learnerID,
		Kind:      string(e.Kind()),
		Key:       e.Key(),
		XPAwarded: out.XPAwarded,
		Timestamp: e.At(),
	}
	if env, err := activity.Wrap(e); err == nil {
		rec.Payload = env.Payload
	}
	return rec
}
