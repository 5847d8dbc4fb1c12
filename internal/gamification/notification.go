package gamification

import (
	"strconv"

	"github.com/medilearn/healthxp/internal/achievements"
	"github.com/medilearn/healthxp/internal/rewards"
)

// NotificationKind tags the notification variant.
type NotificationKind string

const (
	NotifyAchievement NotificationKind = "achievement_unlocked"
	NotifyLevelUp     NotificationKind = "level_up"
	NotifyMilestone   NotificationKind = "milestone_reached"
	NotifyReward      NotificationKind = "reward_unlocked"
)

// Notification is a UI-facing descriptor. Exactly one payload field is set,
// matching Kind.
type Notification struct {
	Kind         NotificationKind           `json:"kind"`
	Title        string                     `json:"title"`
	ShowConfetti bool                       `json:"showConfetti"`
	AutoDismiss  bool                       `json:"autoDismiss"`
	Achievement  *achievements.Notification `json:"achievement,omitempty"`
	Reward       *rewards.Notification      `json:"reward,omitempty"`
	LevelUp      *LevelUp                   `json:"levelUp,omitempty"`
	Milestone    *Milestone                 `json:"milestone,omitempty"`
}

// LevelUp describes a level change.
type LevelUp struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Title    string `json:"title"`
	XPGained int    `json:"xpGained"`
}

// MilestoneKind names what a milestone counts.
type MilestoneKind string

const (
	MilestoneStreak MilestoneKind = "streak"
	MilestoneXP     MilestoneKind = "xp"
)

// Milestone is a round-number threshold the learner just crossed.
type Milestone struct {
	Kind  MilestoneKind `json:"kind"`
	Value int           `json:"value"`
}

var (
	streakMilestones = []int{7, 30, 100, 365}
	xpMilestones     = []int{1000, 5000, 10000, 25000}
)

// crossed returns the thresholds t with before < t <= after.
func crossed(thresholds []int, before, after int) []int {
	var out []int
	for _, t := range thresholds {
		if before < t && t <= after {
			out = append(out, t)
		}
	}
	return out
}

func achievementNotification(u achievements.Unlock) Notification {
	n := u.Notification
	return Notification{
		Kind:         NotifyAchievement,
		Title:        u.Achievement.Name,
		ShowConfetti: n.ShowConfetti,
		AutoDismiss:  n.AutoDismiss,
		Achievement:  &n,
	}
}

func rewardNotification(u rewards.Unlock) Notification {
	n := u.Notification
	pres := achievements.PresentationFor(u.Reward.Rarity)
	return Notification{
		Kind:         NotifyReward,
		Title:        u.Reward.Name,
		ShowConfetti: pres.ShowConfetti,
		AutoDismiss:  pres.AutoDismiss,
		Reward:       &n,
	}
}

func levelUpNotification(from, to int, title string, xpGained int) Notification {
	return Notification{
		Kind:         NotifyLevelUp,
		Title:        title,
		ShowConfetti: true,
		AutoDismiss:  false,
		LevelUp:      &LevelUp{From: from, To: to, Title: title, XPGained: xpGained},
	}
}

func milestoneNotification(kind MilestoneKind, value int) Notification {
	return Notification{
		Kind:         NotifyMilestone,
		Title:        milestoneTitle(kind, value),
		ShowConfetti: true,
		AutoDismiss:  true,
		Milestone:    &Milestone{Kind: kind, Value: value},
	}
}

func milestoneTitle(kind MilestoneKind, value int) string {
	if kind == MilestoneStreak {
		return strconv.Itoa(value) + "-day streak"
	}
	return strconv.Itoa(value) + " XP"
}
