package rewards

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/medilearn/healthxp/internal/achievements"
	"github.com/medilearn/healthxp/internal/logger"
	"github.com/medilearn/healthxp/internal/progress"
)

// Kind is what the learner receives.
type Kind string

const (
	KindBadgeFrame  Kind = "badge-frame"
	KindTheme       Kind = "theme"
	KindTitle       Kind = "title"
	KindCertificate Kind = "certificate"
)

// Reward is an immutable catalog entry unlocked when all requirements hold.
type Reward struct {
	ID           string
	Name         string
	Description  string
	Kind         Kind
	Rarity       achievements.Rarity
	Requirements []Requirement
}

// Unlock is a newly earned reward and its notification.
type Unlock struct {
	Reward       Reward
	Unlocked     progress.UnlockedReward
	Notification Notification
}

// Notification is the reward-unlocked descriptor handed to the UI.
type Notification struct {
	RewardID string              `json:"rewardId"`
	Name     string              `json:"name"`
	Kind     Kind                `json:"kind"`
	Rarity   achievements.Rarity `json:"rarity"`
}

// LockedProgress is the advisory distance to a locked reward.
type LockedProgress struct {
	RewardID            string   `json:"rewardId"`
	Name                string   `json:"name"`
	LevelsRemaining     int      `json:"levelsRemaining"`
	StreakDaysRemaining int      `json:"streakDaysRemaining"`
	MissingAchievements []string `json:"missingAchievements"`
	Percent             float64  `json:"percent"`
}

var catalog = []Reward{
	{
		ID: "frame_bronze", Name: "Bronze Frame", Description: "Reach level 3",
		Kind: KindBadgeFrame, Rarity: achievements.RarityCommon,
		Requirements: []Requirement{RequireLevel(3)},
	},
	{
		ID: "frame_silver", Name: "Silver Frame", Description: "Reach level 5",
		Kind: KindBadgeFrame, Rarity: achievements.RarityRare,
		Requirements: []Requirement{RequireLevel(5)},
	},
	{
		ID: "frame_gold", Name: "Gold Frame", Description: "Reach level 15",
		Kind: KindBadgeFrame, Rarity: achievements.RarityEpic,
		Requirements: []Requirement{RequireLevel(15)},
	},
	{
		ID: "theme_sunrise", Name: "Sunrise Theme", Description: "Keep a 7-day streak",
		Kind: KindTheme, Rarity: achievements.RarityRare,
		Requirements: []Requirement{RequireStreak(7)},
	},
	{
		ID: "theme_aurora", Name: "Aurora Theme", Description: "Keep a 30-day streak",
		Kind: KindTheme, Rarity: achievements.RarityEpic,
		Requirements: []Requirement{RequireStreak(30)},
	},
	{
		ID: "title_quiz_master", Name: "Quiz Master Title", Description: "Earn Flawless and Perfectionist",
		Kind: KindTitle, Rarity: achievements.RarityEpic,
		Requirements: []Requirement{RequireAchievements("perfect_quiz", "perfect_10")},
	},
	{
		ID: "title_explorer", Name: "Explorer Title", Description: "Learn across three specialties",
		Kind: KindTitle, Rarity: achievements.RarityRare,
		Requirements: []Requirement{RequireAchievements("specialty_explorer")},
	},
	{
		ID: "certificate_literacy", Name: "Health Literacy Certificate", Description: "Reach level 10 with a literacy score of 80",
		Kind: KindCertificate, Rarity: achievements.RarityLegendary,
		Requirements: []Requirement{RequireLevel(10), RequireAchievements("health_literacy_80")},
	},
}

func init() {
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].ID < catalog[j].ID })
	if err := ValidateCatalog(catalog); err != nil {
		panic(err)
	}
}

// Catalog returns the reward catalog sorted by id.
func Catalog() []Reward {
	out := make([]Reward, len(catalog))
	copy(out, catalog)
	return out
}

// ValidateCatalog checks id uniqueness, rarities and that every referenced
// achievement exists.
func ValidateCatalog(list []Reward) error {
	seen := make(map[string]bool, len(list))
	for _, r := range list {
		if r.ID == "" || seen[r.ID] {
			return fmt.Errorf("reward id %q is empty or duplicated", r.ID)
		}
		seen[r.ID] = true
		if !r.Rarity.Valid() {
			return fmt.Errorf("reward %q: unknown rarity %q", r.ID, r.Rarity)
		}
		if len(r.Requirements) == 0 {
			return fmt.Errorf("reward %q: no requirements", r.ID)
		}
		for _, req := range r.Requirements {
			for _, id := range req.Achievements {
				if _, ok := achievements.Lookup(id); !ok {
					return fmt.Errorf("reward %q: unknown achievement %q", r.ID, id)
				}
			}
		}
	}
	return nil
}

// ContextFrom builds an evaluation context from progress and unlocked
// achievement ids.
func ContextFrom(p *progress.GamificationProgress, unlockedAchievements map[string]bool) Context {
	return Context{
		Level:         p.Level.CurrentLevel,
		CurrentStreak: p.Streak.CurrentStreak,
		LongestStreak: p.Streak.LongestStreak,
		Achievements:  unlockedAchievements,
	}
}

// Engine evaluates reward requirements.
type Engine struct {
	catalog []Reward
	log     *logger.Logger
}

// NewEngine creates an Engine over the built-in catalog.
func NewEngine(log *logger.Logger) *Engine {
	return NewEngineWithCatalog(catalog, log)
}

// NewEngineWithCatalog creates an Engine over a custom catalog.
func NewEngineWithCatalog(list []Reward, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	c := make([]Reward, len(list))
	copy(c, list)
	return &Engine{catalog: c, log: log.With("component", "rewards")}
}

// Unlockable returns the rewards not in unlocked whose requirements all hold.
func (e *Engine) Unlockable(c Context, unlocked map[string]bool, now time.Time) []Unlock {
	var out []Unlock
	for _, r := range e.catalog {
		if unlocked[r.ID] {
			continue
		}
		ok, err := safeMet(r, c)
		if err != nil {
			e.log.Warn("reward condition failed", "reward_id", r.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, Unlock{
			Reward: r,
			Unlocked: progress.UnlockedReward{
				ID:         r.ID,
				Kind:       string(r.Kind),
				Rarity:     string(r.Rarity),
				UnlockedAt: now.UTC(),
			},
			Notification: Notification{RewardID: r.ID, Name: r.Name, Kind: r.Kind, Rarity: r.Rarity},
		})
	}
	return out
}

// LockedProgress reports the advisory distance to every locked reward.
func (e *Engine) LockedProgress(c Context, unlocked map[string]bool) []LockedProgress {
	var out []LockedProgress
	for _, r := range e.catalog {
		if unlocked[r.ID] {
			continue
		}
		lp := LockedProgress{RewardID: r.ID, Name: r.Name, MissingAchievements: []string{}}
		total := 0.0
		for _, req := range r.Requirements {
			switch req.Kind {
			case KindLevel:
				lp.LevelsRemaining = max(lp.LevelsRemaining, req.MinLevel-c.Level)
			case KindStreak:
				lp.StreakDaysRemaining = max(lp.StreakDaysRemaining, req.MinStreak-c.CurrentStreak)
			case KindAchievements:
				lp.MissingAchievements = append(lp.MissingAchievements, req.missing(c)...)
			}
			total += req.fraction(c)
		}
		sort.Strings(lp.MissingAchievements)
		lp.Percent = math.Round(total/float64(len(r.Requirements))*1000) / 10
		out = append(out, lp)
	}
	return out
}

func safeMet(r Reward, c Context) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reward %q panicked: %v", r.ID, rec)
		}
	}()
	for _, req := range r.Requirements {
		if !req.Met(c) {
			return false, nil
		}
	}
	return true, nil
}
