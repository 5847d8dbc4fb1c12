package rewards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilearn/healthxp/internal/achievements"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func rewardIDs(u []Unlock) []string {
	out := make([]string, len(u))
	for i, x := range u {
		out[i] = x.Reward.ID
	}
	return out
}

func TestCatalogValid(t *testing.T) {
	require.NoError(t, ValidateCatalog(Catalog()))
}

func TestValidateCatalogUnknownAchievement(t *testing.T) {
	list := []Reward{{
		ID: "x", Rarity: achievements.RarityCommon,
		Requirements: []Requirement{RequireAchievements("not_real")},
	}}
	assert.ErrorContains(t, ValidateCatalog(list), "not_real")
}

func TestRequirementMet(t *testing.T) {
	c := Context{Level: 5, CurrentStreak: 3, Achievements: map[string]bool{"first_quiz": true}}
	assert.True(t, RequireLevel(5).Met(c))
	assert.False(t, RequireLevel(6).Met(c))
	assert.True(t, RequireStreak(3).Met(c))
	assert.False(t, RequireStreak(7).Met(c))
	assert.True(t, RequireAchievements("first_quiz").Met(c))
	assert.False(t, RequireAchievements("first_quiz", "perfect_quiz").Met(c))
	assert.False(t, Requirement{Kind: "bogus"}.Met(c))
}

func TestUnlockableAllRequirements(t *testing.T) {
	e := NewEngine(nil)

	c := Context{Level: 10, Achievements: map[string]bool{}}
	got := rewardIDs(e.Unlockable(c, nil, now))
	assert.NotContains(t, got, "certificate_literacy")
	assert.Contains(t, got, "frame_silver")

	c.Achievements["health_literacy_80"] = true
	got = rewardIDs(e.Unlockable(c, nil, now))
	assert.Contains(t, got, "certificate_literacy")
}

func TestUnlockableSkipsUnlocked(t *testing.T) {
	e := NewEngine(nil)
	c := Context{Level: 5, Achievements: map[string]bool{}}
	got := rewardIDs(e.Unlockable(c, map[string]bool{"frame_bronze": true}, now))
	assert.Equal(t, []string{"frame_silver"}, got)
}

func TestLockedProgress(t *testing.T) {
	e := NewEngine(nil)
	c := Context{Level: 8, CurrentStreak: 3, Achievements: map[string]bool{"perfect_quiz": true}}
	locked := map[string]LockedProgress{}
	for _, lp := range e.LockedProgress(c, nil) {
		locked[lp.RewardID] = lp
	}

	assert.Equal(t, 7, locked["frame_gold"].LevelsRemaining)
	assert.Equal(t, 4, locked["theme_sunrise"].StreakDaysRemaining)
	assert.Equal(t, []string{"perfect_10"}, locked["title_quiz_master"].MissingAchievements)
	assert.InDelta(t, 50.0, locked["title_quiz_master"].Percent, 0.01)

	cert := locked["certificate_literacy"]
	assert.Equal(t, 2, cert.LevelsRemaining)
	assert.Equal(t, []string{"health_literacy_80"}, cert.MissingAchievements)
	assert.InDelta(t, 40.0, cert.Percent, 0.01)
}

func TestUnlockableCustomCatalog(t *testing.T) {
	list := []Reward{
		{ID: "ok", Rarity: achievements.RarityCommon, Requirements: []Requirement{RequireLevel(1)}},
	}
	e := NewEngineWithCatalog(list, nil)
	got := e.Unlockable(Context{Level: 1}, nil, now)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Notification.RewardID)
	assert.True(t, got[0].Unlocked.UnlockedAt.Equal(now))
}
