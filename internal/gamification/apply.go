// Package gamification turns learning events into XP, levels, streaks,
// achievements and rewards, and keeps each learner's state durable.
package gamification

import (
	"fmt"
	"math"
	"time"

	"github.com/medilearn/healthxp/internal/achievements"
	"github.com/medilearn/healthxp/internal/activity"
	"github.com/medilearn/healthxp/internal/level"
	"github.com/medilearn/healthxp/internal/literacy"
	"github.com/medilearn/healthxp/internal/progress"
	"github.com/medilearn/healthxp/internal/rewards"
	"github.com/medilearn/healthxp/internal/streak"
	"github.com/medilearn/healthxp/internal/teaching"
)

// defaultModules is assumed for a specialty when nothing else names its size.
const defaultModules = 5

// Options carries the collaborators Apply evaluates with. Zero values fall
// back to the built-in catalogs.
type Options struct {
	Achievements *achievements.Evaluator
	Rewards      *rewards.Engine
	// ModulesFor returns the catalog module count of a specialty.
	ModulesFor func(specialty string) int
}

func (o Options) withDefaults() Options {
	if o.Achievements == nil {
		o.Achievements = achievements.NewEvaluator(nil)
	}
	if o.Rewards == nil {
		o.Rewards = rewards.NewEngine(nil)
	}
	if o.ModulesFor == nil {
		o.ModulesFor = func(string) int { return defaultModules }
	}
	return o
}

// Outcome is what a single Apply changed.
type Outcome struct {
	Event         activity.Type
	Duplicate     bool
	XPAwarded     int
	Transition    streak.Transition
	LevelBefore   int
	LevelAfter    int
	Achievements  []achievements.Unlock
	Rewards       []rewards.Unlock
	Notifications []Notification
}

// Apply folds one event into a copy of s and returns the new state. s is
// never modified. An event whose key was already applied returns s unchanged
// with Outcome.Duplicate set.
func Apply(s progress.State, e activity.Event, now time.Time, opts Options) (progress.State, Outcome, error) {
	if err := activity.Validate(e); err != nil {
		return s, Outcome{}, err
	}
	out := Outcome{Event: e.Kind()}
	if s.Progress.SyncedEvents[e.Key()] {
		out.Duplicate = true
		out.LevelBefore, out.LevelAfter = s.Progress.Level.CurrentLevel, s.Progress.Level.CurrentLevel
		return s, out, nil
	}

	next, err := s.Clone()
	if err != nil {
		return s, Outcome{}, err
	}
	opts = opts.withDefaults()
	now = now.UTC()
	loc := next.Location()
	p := &next.Progress
	at := e.At()

	before := struct{ level, xp, streak int }{p.Level.CurrentLevel, p.Level.TotalXP, p.Streak.CurrentStreak}
	out.LevelBefore = before.level

	p.Streak, out.Transition = streak.Update(p.Streak, at, loc)

	xp, err := applyEvent(p, e, loc, now, opts)
	if err != nil {
		return s, Outcome{}, err
	}
	out.XPAwarded = xp

	p.Level = level.NewSystem(p.Level.TotalXP + xp)
	p.HealthLiteracy = literacy.Calculate(p.Specialties, now)
	p.TimeTracking = streak.Recompute(p.TimeTracking, now, loc)
	p.SyncedEvents[e.Key()] = true
	p.UpdatedAt = now

	unlocked := next.AchievementSet()
	out.Achievements = opts.Achievements.Evaluate(achievements.Snapshot{Progress: p}, unlocked, now)
	for _, u := range out.Achievements {
		next.UnlockedAchievements = append(next.UnlockedAchievements, u.Unlocked)
		p.AchievementPoints += u.Unlocked.Points
		unlocked[u.Achievement.ID] = true
	}

	out.Rewards = opts.Rewards.Unlockable(rewards.ContextFrom(p, unlocked), next.RewardSet(), now)
	for _, u := range out.Rewards {
		next.UnlockedRewards = append(next.UnlockedRewards, u.Unlocked)
	}

	out.LevelAfter = p.Level.CurrentLevel
	out.Notifications = notificationsFor(out, before.streak, p.Streak.CurrentStreak, before.xp, p.Level.TotalXP, p.Level.Title)
	return next, out, nil
}

// applyEvent mutates p for the event and returns the XP it earns.
func applyEvent(p *progress.GamificationProgress, e activity.Event, loc *time.Location, now time.Time, opts Options) (int, error) {
	at := e.At()
	switch ev := e.(type) {
	case activity.ModuleCompleted:
		sp := specialty(p, ev.Specialty, ev.TotalModules, opts.ModulesFor)
		sp.TimeSpentMinutes += ev.Minutes
		sp.LastActivity = at.UTC()
		modules := 0
		xp := 0
		if !sp.HasModule(ev.ModuleID) {
			sp.ModuleIDs = append(sp.ModuleIDs, ev.ModuleID)
			sp.CompletedModules++
			p.Activity.ModulesCompleted++
			modules = 1
			xp = mustXP(level.ActivityModuleCompleted, 0)
		}
		refreshSpecialty(sp)
		recordActivity(p, ev.Minutes, modules, 0, at, now, loc)
		return xp, nil

	case activity.QuizCompleted:
		sp := specialty(p, ev.Specialty, 0, opts.ModulesFor)
		sp.AverageQuizScore = (sp.AverageQuizScore*float64(sp.QuizzesTaken) + ev.Score) / float64(sp.QuizzesTaken+1)
		sp.QuizzesTaken++
		sp.TimeSpentMinutes += ev.Minutes
		sp.LastActivity = at.UTC()
		refreshSpecialty(sp)
		p.Activity.QuizzesTaken++
		recordActivity(p, ev.Minutes, 0, 1, at, now, loc)
		if ev.IsPerfect {
			p.Activity.PerfectQuizzes++
			return mustXP(level.ActivityPerfectQuiz, 0), nil
		}
		return mustXP(level.ActivityQuizCompleted, 0), nil

	case activity.Login:
		p.Activity.Logins++
		recordActivity(p, 0, 0, 0, at, now, loc)
		today := streak.DateKey(at, loc)
		if p.DailyBonusDate >= today {
			return 0, nil
		}
		p.DailyBonusDate = today
		return mustXP(level.ActivityDailyLogin, p.Streak.CurrentStreak), nil

	case activity.LabReviewed:
		p.Activity.LabReviews++
		recordActivity(p, 0, 0, 0, at, now, loc)
		return mustXP(level.ActivityLabReviewed, 0), nil

	case activity.ContentShared:
		p.Activity.ContentShares++
		recordActivity(p, 0, 0, 0, at, now, loc)
		return mustXP(level.ActivityContentShared, 0), nil

	case activity.TeachingSession:
		session := teaching.NewSession(ev.Prompt, ev.Response, ev.Specialty, at)
		p.TeachingSessions = append(p.TeachingSessions, session)
		if n := len(p.TeachingSessions); n > progress.MaxTeachingSessions {
			p.TeachingSessions = p.TeachingSessions[n-progress.MaxTeachingSessions:]
		}
		p.Activity.TeachingSessions++
		p.Activity.TeachingQualityTotal += session.QualityScore
		recordActivity(p, 0, 0, 0, at, now, loc)
		return mustXP(level.ActivityTeachingSession, 0), nil

	default:
		return 0, fmt.Errorf("%w: %q", activity.ErrUnknownType, e.Kind())
	}
}

// mustXP looks up a built-in activity type; every caller passes a constant.
func mustXP(t level.ActivityType, streakLen int) int {
	xp, err := level.XPForActivity(t, streakLen)
	if err != nil {
		panic(err)
	}
	return xp
}

func recordActivity(p *progress.GamificationProgress, minutes, modules, quizzes int, at, now time.Time, loc *time.Location) {
	p.Streak = streak.RecordDailyActivity(p.Streak, minutes, modules, quizzes, at, loc)
	if minutes > 0 {
		p.TimeTracking = streak.RecordTime(p.TimeTracking, minutes, at, now, loc)
	}
}

func specialty(p *progress.GamificationProgress, id string, total int, modulesFor func(string) int) *progress.SpecialtyProgress {
	sp, ok := p.Specialties[id]
	if !ok {
		sp = &progress.SpecialtyProgress{Level: 1}
		p.Specialties[id] = sp
	}
	switch {
	case total > 0:
		sp.TotalModules = total
	case sp.TotalModules == 0:
		sp.TotalModules = modulesFor(id)
	}
	return sp
}

// refreshSpecialty recomputes the derived completion fields.
func refreshSpecialty(sp *progress.SpecialtyProgress) {
	if sp.TotalModules < sp.CompletedModules {
		sp.TotalModules = sp.CompletedModules
	}
	pct := 0.0
	if sp.TotalModules > 0 {
		pct = float64(sp.CompletedModules) / float64(sp.TotalModules) * 100
	}
	sp.CompletionPercentage = math.Round(pct*10) / 10
	sp.Level = specialtyLevel(sp.CompletionPercentage)
}

// specialtyLevel maps completion to the specialty-local level 1-4.
func specialtyLevel(pct float64) int {
	switch {
	case pct >= 100:
		return 4
	case pct >= 50:
		return 3
	case pct >= 25:
		return 2
	default:
		return 1
	}
}

func notificationsFor(out Outcome, streakBefore, streakAfter, xpBefore, xpAfter int, title string) []Notification {
	var ns []Notification
	for _, u := range out.Achievements {
		ns = append(ns, achievementNotification(u))
	}
	if out.LevelAfter > out.LevelBefore {
		ns = append(ns, levelUpNotification(out.LevelBefore, out.LevelAfter, title, out.XPAwarded))
	}
	for _, m := range crossed(streakMilestones, streakBefore, streakAfter) {
		ns = append(ns, milestoneNotification(MilestoneStreak, m))
	}
	for _, m := range crossed(xpMilestones, xpBefore, xpAfter) {
		ns = append(ns, milestoneNotification(MilestoneXP, m))
	}
	for _, u := range out.Rewards {
		ns = append(ns, rewardNotification(u))
	}
	return ns
}
