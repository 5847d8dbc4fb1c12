package gamification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medilearn/healthxp/internal/activity"
	"github.com/medilearn/healthxp/internal/exchange"
	"github.com/medilearn/healthxp/internal/logger"
	"github.com/medilearn/healthxp/internal/progress"
	"github.com/medilearn/healthxp/internal/store"
)

// memRepo implements store.SnapshotRepo and store.EventRepo in memory.
type memRepo struct {
	mu        sync.Mutex
	snaps     map[string][]store.Snapshot
	acts      map[string][]store.ActivityRecord
	saveErr   error
	saveCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{
		snaps: make(map[string][]store.Snapshot),
		acts:  make(map[string][]store.ActivityRecord),
	}
}

func (m *memRepo) Save(_ context.Context, snap *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, s := range m.snaps[snap.LearnerID] {
		if s.Sequence == snap.Sequence {
			return store.ErrConflict
		}
	}
	m.snaps[snap.LearnerID] = append(m.snaps[snap.LearnerID], *snap)
	return nil
}

func (m *memRepo) Latest(_ context.Context, learnerID string) (*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.snaps[learnerID]
	if len(list) == 0 {
		return nil, nil
	}
	s := list[len(list)-1]
	return &s, nil
}

func (m *memRepo) Prune(_ context.Context, learnerID string, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if list := m.snaps[learnerID]; len(list) > keep {
		m.snaps[learnerID] = list[len(list)-keep:]
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, learnerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, learnerID)
	return nil
}

func (m *memRepo) Learners(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id := range m.snaps {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memRepo) AppendActivity(_ context.Context, rec *store.ActivityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Sequence = int64(len(m.acts[rec.LearnerID]) + 1)
	m.acts[rec.LearnerID] = append(m.acts[rec.LearnerID], *rec)
	return nil
}

func (m *memRepo) Activities(_ context.Context, learnerID string, _ store.QueryOpts) ([]store.ActivityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.ActivityRecord(nil), m.acts[learnerID]...), nil
}

func (m *memRepo) DeleteActivities(_ context.Context, learnerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.acts, learnerID)
	return nil
}

func (m *memRepo) setSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func fastRetry() store.RetryPolicy {
	return store.RetryPolicy{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	svc := NewService(repo, repo, Config{
		Retry:             fastRetry(),
		SnapshotRetention: 3,
		Now:               func() time.Time { return day1 },
	})
	return svc, repo
}

func TestServiceTrackPersists(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	res, err := svc.TrackModuleCompletion(ctx, "learner-1", module("m1", day1))
	require.NoError(t, err)
	assert.Equal(t, 50, res.XPAwarded)
	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Achievements, 1)
	assert.Equal(t, "first_module", res.Achievements[0].ID)
	assert.NotEmpty(t, res.Notifications)

	got, err := svc.State(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.State.Progress.Level.TotalXP)
	assert.Empty(t, got.Warnings)

	history, err := svc.History(ctx, "learner-1", store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(activity.TypeModuleCompleted), history[0].Kind)
	assert.Equal(t, 50, history[0].XPAwarded)
	assert.Len(t, repo.snaps["learner-1"], 1)
}

func TestServiceAllTrackOperations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := "learner-1"

	_, err := svc.TrackLogin(ctx, id, activity.Login{Timestamp: day1})
	require.NoError(t, err)
	_, err = svc.TrackQuizCompletion(ctx, id, activity.QuizCompleted{QuizID: "q1", Specialty: "nutrition", Score: 70, Timestamp: day1.Add(time.Minute)})
	require.NoError(t, err)
	_, err = svc.TrackLabReview(ctx, id, activity.LabReviewed{LabID: "lipid-panel", Timestamp: day1.Add(2 * time.Minute)})
	require.NoError(t, err)
	_, err = svc.TrackContentShare(ctx, id, activity.ContentShared{ContentID: "article-9", Timestamp: day1.Add(3 * time.Minute)})
	require.NoError(t, err)
	res, err := svc.CompleteTeachingSession(ctx, id, activity.TeachingSession{
		Prompt: "Explain insulin", Response: "Insulin helps sugar move from blood into cells.", Timestamp: day1.Add(4 * time.Minute),
	})
	require.NoError(t, err)

	a := res.State.Progress.Activity
	assert.Equal(t, 1, a.Logins)
	assert.Equal(t, 1, a.QuizzesTaken)
	assert.Equal(t, 1, a.LabReviews)
	assert.Equal(t, 1, a.ContentShares)
	assert.Equal(t, 1, a.TeachingSessions)
	assert.Equal(t, 15+25+30+15+40, res.State.Progress.Level.TotalXP)
}

func TestServiceRejectsEmptyLearner(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.TrackLogin(context.Background(), "", activity.Login{Timestamp: day1})
	assert.ErrorIs(t, err, ErrLearnerRequired)
}

func TestServiceDuplicateSkipsWrite(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	e := module("m1", day1)

	_, err := svc.TrackModuleCompletion(ctx, "learner-1", e)
	require.NoError(t, err)
	res, err := svc.TrackModuleCompletion(ctx, "learner-1", e)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Duplicates)
	assert.Zero(t, res.Applied)
	assert.Zero(t, res.XPAwarded)
	assert.Equal(t, 1, repo.saveCalls)
}

func TestServiceSyncAppliesInOrderAndDedupes(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.TrackModuleCompletion(ctx, "learner-1", module("m1", day1))
	require.NoError(t, err)

	batch := []activity.Event{
		module("m1", day1),
		module("m2", day1.Add(time.Minute)),
		activity.Login{Timestamp: day1.Add(2 * time.Minute)},
	}
	res, err := svc.SyncWithEducationModule(ctx, "learner-1", batch)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 50+15, res.XPAwarded)
	assert.Equal(t, 2, res.State.Progress.Activity.ModulesCompleted)
	// One save for the first track and one for the whole batch.
	assert.Equal(t, 2, repo.saveCalls)
}

func TestServiceSyncRejectsWholeBatch(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	batch := []activity.Event{
		module("m1", day1),
		activity.QuizCompleted{Specialty: "nutrition", Score: 140, Timestamp: day1},
	}
	_, err := svc.SyncWithEducationModule(ctx, "learner-1", batch)

	var verr *activity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Index)
	assert.Equal(t, "score", verr.Field)
	assert.Zero(t, repo.saveCalls)
}

func TestServiceConcurrentTracksLoseNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.TrackContentShare(ctx, "learner-1", activity.ContentShared{
				ContentID: "article",
				Timestamp: day1.Add(time.Duration(i) * time.Second),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	res, err := svc.State(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, n, res.State.Progress.Activity.ContentShares)
	assert.Equal(t, n*15, res.State.Progress.Level.TotalXP)
}

func TestServiceMalformedSnapshotStartsFresh(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := newMemRepo()
	svc := NewService(repo, repo, Config{
		Retry:  fastRetry(),
		Logger: logger.FromZap(zap.New(core)),
		Now:    func() time.Time { return day1 },
	})
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &store.Snapshot{LearnerID: "learner-1", Sequence: 4, Timestamp: day1, Data: []byte(`{"broken":`)}))

	res, err := svc.TrackLogin(ctx, "learner-1", activity.Login{Timestamp: day1})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "starting fresh")
	assert.Equal(t, 15, res.State.Progress.Level.TotalXP)
	assert.Equal(t, 1, logs.FilterMessage("discarding stored state").Len())

	latest, err := repo.Latest(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), latest.Sequence)
}

func TestServiceForeignSnapshotStartsFresh(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	data, err := exchange.Export(progress.NewState("someone-else", day1))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, &store.Snapshot{LearnerID: "learner-1", Sequence: 1, Timestamp: day1, Data: data}))

	res, err := svc.State(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, "learner-1", res.State.LearnerID)
	assert.Len(t, res.Warnings, 1)
}

func TestServicePersistFailureCarriesState(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.setSaveErr(errors.New("disk full"))
	before := testutil.ToFloat64(persistFailures)
	appliedBefore := testutil.ToFloat64(eventsApplied.WithLabelValues(string(activity.TypeModuleCompleted), "applied"))

	res, err := svc.TrackModuleCompletion(ctx, "learner-1", module("m1", day1))
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "learner-1", perr.LearnerID)
	assert.Equal(t, 50, perr.State.Progress.Level.TotalXP)
	require.NotNil(t, res)
	assert.Equal(t, 50, res.State.Progress.Level.TotalXP)
	assert.Equal(t, 2, repo.saveCalls)
	assert.Equal(t, before+1, testutil.ToFloat64(persistFailures))
	assert.Equal(t, appliedBefore, testutil.ToFloat64(eventsApplied.WithLabelValues(string(activity.TypeModuleCompleted), "applied")))

	repo.setSaveErr(nil)
	require.NoError(t, svc.Save(ctx, perr.State))
	got, err := svc.State(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.State.Progress.Level.TotalXP)
}

func TestServiceNotificationsCanBeDisabled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	settings := progress.DefaultSettings()
	settings.NotificationsEnabled = false
	_, err := svc.UpdateSettings(ctx, "learner-1", settings)
	require.NoError(t, err)

	res, err := svc.TrackModuleCompletion(ctx, "learner-1", module("m1", day1))
	require.NoError(t, err)
	assert.Empty(t, res.Notifications)
	assert.Len(t, res.Achievements, 1)
}

func TestServiceUpdateSettingsRejectsUnknownTimezone(t *testing.T) {
	svc, repo := newTestService(t)
	settings := progress.DefaultSettings()
	settings.Timezone = "Mars/Olympus_Mons"

	_, err := svc.UpdateSettings(context.Background(), "learner-1", settings)
	var ferr *progress.FieldError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "settings.timezone", ferr.Field)
	assert.Zero(t, repo.saveCalls)
}

func TestServiceFreshLearnerUsesDefaultTimezone(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, repo, Config{DefaultTimezone: "Europe/Berlin", Now: func() time.Time { return day1 }})

	res, err := svc.State(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", res.State.Settings.Timezone)
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.SyncWithEducationModule(ctx, "learner-1", []activity.Event{
		module("m1", day1),
		activity.QuizCompleted{QuizID: "q1", Specialty: "cardiology", Score: 100, IsPerfect: true, Timestamp: day1.Add(time.Minute)},
	})
	require.NoError(t, err)

	data, err := svc.ExportGamificationData(ctx, "learner-1")
	require.NoError(t, err)

	other, _ := newTestService(t)
	res, err := other.ImportGamificationData(ctx, "learner-1", data)
	require.NoError(t, err)
	assert.Equal(t, 100, res.State.Progress.Level.TotalXP)

	// Replaying an event the export already carries is a duplicate.
	again, err := other.TrackModuleCompletion(ctx, "learner-1", module("m1", day1))
	require.NoError(t, err)
	assert.Equal(t, 1, again.Duplicates)
}

func TestServiceImportRejectsOtherLearner(t *testing.T) {
	svc, repo := newTestService(t)
	data, err := exchange.Export(progress.NewState("learner-2", day1))
	require.NoError(t, err)

	_, err = svc.ImportGamificationData(context.Background(), "learner-1", data)
	var ierr *exchange.ImportError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "learnerId", ierr.Field)
	assert.Zero(t, repo.saveCalls)
}

func TestServiceImportRejectsInvalidDocument(t *testing.T) {
	svc, repo := newTestService(t)
	_, err := svc.ImportGamificationData(context.Background(), "learner-1", []byte(`{"schemaVersion":"v1.0.0"}`))
	assert.Error(t, err)
	assert.Zero(t, repo.saveCalls)
}

func TestServiceReset(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	_, err := svc.TrackLogin(ctx, "learner-1", activity.Login{Timestamp: day1})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, "learner-1"))
	assert.Empty(t, repo.snaps["learner-1"])
	assert.Empty(t, repo.acts["learner-1"])

	res, err := svc.State(ctx, "learner-1")
	require.NoError(t, err)
	assert.Zero(t, res.State.Progress.Level.TotalXP)
}

func TestServiceLockedRewardsAndProgress(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.TrackModuleCompletion(ctx, "learner-1", module("m1", day1))
	require.NoError(t, err)

	locked, err := svc.LockedRewards(ctx, "learner-1")
	require.NoError(t, err)
	require.NotEmpty(t, locked)
	for _, lp := range locked {
		if lp.RewardID == "frame_bronze" {
			assert.Equal(t, 2, lp.LevelsRemaining)
		}
	}

	prog, err := svc.AchievementProgress(ctx, "learner-1")
	require.NoError(t, err)
	assert.NotContains(t, prog, "first_module")
	assert.Equal(t, 1, prog["modules_10"].Current)
	assert.Equal(t, 10, prog["modules_10"].Target)
}

func TestServiceSnapshotRetention(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, err := svc.TrackContentShare(ctx, "learner-1", activity.ContentShared{ContentID: "a", Timestamp: day1.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	assert.Len(t, repo.snaps["learner-1"], 3)
	latest, err := repo.Latest(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), latest.Sequence)
}

func TestServiceWithSQLiteStore(t *testing.T) {
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := NewService(st.SnapshotRepo(), st.EventRepo(), Config{Retry: fastRetry(), SnapshotRetention: 5})
	ctx := context.Background()

	_, err = svc.TrackModuleCompletion(ctx, "learner-1", module("m1", day1))
	require.NoError(t, err)
	_, err = svc.TrackLogin(ctx, "learner-1", activity.Login{Timestamp: day1.Add(time.Hour)})
	require.NoError(t, err)

	res, err := svc.State(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 65, res.State.Progress.Level.TotalXP)

	history, err := svc.History(ctx, "learner-1", store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, string(activity.TypeLogin), history[1].Kind)

	learners, err := svc.Learners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"learner-1"}, learners)
}
