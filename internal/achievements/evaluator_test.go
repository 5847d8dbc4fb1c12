package achievements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medilearn/healthxp/internal/logger"
	"github.com/medilearn/healthxp/internal/progress"
)

var evalTime = time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC)

func snapshotOf(p progress.GamificationProgress) Snapshot {
	if p.Specialties == nil {
		p.Specialties = map[string]*progress.SpecialtyProgress{}
	}
	return Snapshot{Progress: &p}
}

func ids(unlocks []Unlock) []string {
	out := make([]string, len(unlocks))
	for i, u := range unlocks {
		out[i] = u.Achievement.ID
	}
	return out
}

func TestCatalogIsValid(t *testing.T) {
	require.NoError(t, ValidateCatalog(Catalog()))
	cat := Catalog()
	for i := 1; i < len(cat); i++ {
		assert.Less(t, cat[i-1].ID, cat[i].ID, "catalog must be sorted by id")
	}
}

func TestValidateCatalogRejectsDuplicates(t *testing.T) {
	cond := func(Snapshot) bool { return true }
	list := []Achievement{
		{ID: "a", Category: CategoryQuiz, Rarity: RarityCommon, Condition: cond},
		{ID: "a", Category: CategoryQuiz, Rarity: RarityCommon, Condition: cond},
	}
	assert.ErrorContains(t, ValidateCatalog(list), "duplicate")

	list[1] = Achievement{ID: "b", Category: "fun", Rarity: RarityCommon, Condition: cond}
	assert.ErrorContains(t, ValidateCatalog(list), "category")

	list[1] = Achievement{ID: "b", Category: CategoryQuiz, Rarity: "mythic", Condition: cond}
	assert.ErrorContains(t, ValidateCatalog(list), "rarity")
}

func TestLookup(t *testing.T) {
	a, ok := Lookup("streak_7")
	require.True(t, ok)
	assert.Equal(t, RarityRare, a.Rarity)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestEvaluateUnlocksMatching(t *testing.T) {
	e := NewEvaluator(nil)
	snap := snapshotOf(progress.GamificationProgress{
		Activity: progress.ActivityCounters{ModulesCompleted: 1, QuizzesTaken: 1, PerfectQuizzes: 1},
		Level:    progress.LevelSystem{CurrentLevel: 1},
	})

	got := e.Evaluate(snap, nil, evalTime)
	assert.Equal(t, []string{"first_module", "first_quiz", "perfect_quiz"}, ids(got))
	for _, u := range got {
		assert.True(t, u.Unlocked.UnlockedAt.Equal(evalTime))
		assert.Equal(t, u.Achievement.Points, u.Unlocked.Points)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	e := NewEvaluator(nil)
	snap := snapshotOf(progress.GamificationProgress{
		Activity: progress.ActivityCounters{ModulesCompleted: 10, LabReviews: 1},
		Streak:   progress.LearningStreak{CurrentStreak: 7, LongestStreak: 7},
		Level:    progress.LevelSystem{CurrentLevel: 3},
	})

	first := e.Evaluate(snap, nil, evalTime)
	require.NotEmpty(t, first)

	unlocked := map[string]bool{}
	for _, u := range first {
		unlocked[u.Achievement.ID] = true
	}
	again := e.Evaluate(snap, unlocked, evalTime.Add(time.Hour))
	assert.Empty(t, again)
}

func TestEvaluateDeterministicOrder(t *testing.T) {
	e := NewEvaluator(nil)
	snap := snapshotOf(progress.GamificationProgress{
		Activity: progress.ActivityCounters{ModulesCompleted: 50, ContentShares: 10, LabReviews: 10},
		Streak:   progress.LearningStreak{LongestStreak: 30},
	})
	a := ids(e.Evaluate(snap, nil, evalTime))
	b := ids(e.Evaluate(snap, nil, evalTime))
	assert.Equal(t, a, b)
}

func TestEvaluateIsolatesPanics(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	list := []Achievement{
		{ID: "a_ok", Category: CategoryMilestone, Rarity: RarityCommon, Condition: func(Snapshot) bool { return true }},
		{ID: "b_boom", Category: CategoryMilestone, Rarity: RarityCommon, Condition: func(s Snapshot) bool {
			var m map[string]*progress.SpecialtyProgress
			return m["x"].CompletedModules > 0
		}},
		{ID: "c_ok", Category: CategoryMilestone, Rarity: RarityEpic, Condition: func(Snapshot) bool { return true }},
	}
	e := NewEvaluatorWithCatalog(list, logger.FromZap(zap.New(core)))

	got := e.Evaluate(snapshotOf(progress.GamificationProgress{}), nil, evalTime)
	assert.Equal(t, []string{"a_ok", "c_ok"}, ids(got))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "b_boom", logs.All()[0].ContextMap()["achievement_id"])
}

func TestNotificationFromRarity(t *testing.T) {
	tests := []struct {
		rarity   Rarity
		confetti bool
		dismiss  bool
	}{
		{RarityCommon, false, true},
		{RarityRare, true, true},
		{RarityEpic, true, false},
		{RarityLegendary, true, false},
	}
	for _, tt := range tests {
		list := []Achievement{{ID: "x", Category: CategoryQuiz, Rarity: tt.rarity, Condition: func(Snapshot) bool { return true }}}
		got := NewEvaluatorWithCatalog(list, nil).Evaluate(snapshotOf(progress.GamificationProgress{}), nil, evalTime)
		require.Len(t, got, 1)
		assert.Equal(t, tt.confetti, got[0].Notification.ShowConfetti, "rarity %s", tt.rarity)
		assert.Equal(t, tt.dismiss, got[0].Notification.AutoDismiss, "rarity %s", tt.rarity)
	}
}

func TestProgressForLocked(t *testing.T) {
	e := NewEvaluator(nil)
	snap := snapshotOf(progress.GamificationProgress{
		Activity: progress.ActivityCounters{ModulesCompleted: 4},
	})
	got := e.Progress(snap, map[string]bool{"first_module": true})

	_, ok := got["first_module"]
	assert.False(t, ok, "unlocked achievements are not reported")
	assert.Equal(t, Progress{Current: 4, Target: 10}, got["modules_10"])
	assert.InDelta(t, 40.0, got["modules_10"].Percent(), 0.001)
}

func TestSpecialtyConditions(t *testing.T) {
	e := NewEvaluator(nil)
	snap := snapshotOf(progress.GamificationProgress{
		Specialties: map[string]*progress.SpecialtyProgress{
			"cardiology":  {CompletedModules: 4, TotalModules: 4, CompletionPercentage: 100},
			"neurology":   {QuizzesTaken: 1},
			"dermatology": {TimeSpentMinutes: 5},
		},
	})
	got := ids(e.Evaluate(snap, nil, evalTime))
	assert.Contains(t, got, "specialty_explorer")
	assert.Contains(t, got, "specialty_master")
	assert.NotContains(t, got, "polymath")
}

func TestMasterTeacher(t *testing.T) {
	e := NewEvaluator(nil)
	unlocked := map[string]bool{"first_teaching": true}

	low := snapshotOf(progress.GamificationProgress{
		Activity: progress.ActivityCounters{TeachingSessions: 10, TeachingQualityTotal: 700},
	})
	assert.NotContains(t, ids(e.Evaluate(low, unlocked, evalTime)), "master_teacher")

	high := snapshotOf(progress.GamificationProgress{
		Activity: progress.ActivityCounters{TeachingSessions: 10, TeachingQualityTotal: 850},
	})
	assert.Contains(t, ids(e.Evaluate(high, unlocked, evalTime)), "master_teacher")
}
