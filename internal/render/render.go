package render

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/medilearn/healthxp/internal/achievements"
	"github.com/medilearn/healthxp/internal/gamification"
	"github.com/medilearn/healthxp/internal/progress"
	"github.com/medilearn/healthxp/internal/rewards"
	"github.com/medilearn/healthxp/internal/store"
)

// barWidth is the width of every progress bar, label included.
const barWidth = 48

// Result summarizes what one track or sync call changed.
func Result(res *gamification.Result) string {
	var lines []string
	switch {
	case res.Applied == 0 && res.Duplicates > 0:
		lines = append(lines, dimStyle.Render("Already recorded, nothing changed."))
	case res.XPAwarded > 0:
		lines = append(lines, xpStyle.Render(fmt.Sprintf("+%d XP", res.XPAwarded)))
	default:
		lines = append(lines, dimStyle.Render("Recorded (no XP)"))
	}
	if res.Applied > 1 || res.Duplicates > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%d applied, %d already recorded", res.Applied, res.Duplicates)))
	}
	for _, n := range res.Notifications {
		lines = append(lines, Notification(n))
	}
	for _, w := range res.Warnings {
		lines = append(lines, warnStyle.Render("warning: ")+bodyStyle.Render(w))
	}
	lines = append(lines, levelLine(res.State.Progress.Level))
	return strings.Join(lines, "\n")
}

// Notification renders one notification as a single line.
func Notification(n gamification.Notification) string {
	switch n.Kind {
	case gamification.NotifyAchievement:
		a := n.Achievement
		icon := "★"
		if def, ok := achievements.Lookup(a.AchievementID); ok {
			icon = def.Icon
		}
		return rarityStyle(a.Rarity).Render(fmt.Sprintf("%s Achievement: %s", icon, a.Name)) +
			dimStyle.Render(fmt.Sprintf(" (%s, +%d pts)", a.Rarity.DisplayName(), a.Points))
	case gamification.NotifyLevelUp:
		return titleStyle.Render(fmt.Sprintf("Level up! %d → %d", n.LevelUp.From, n.LevelUp.To)) +
			bodyStyle.Render("  "+n.LevelUp.Title)
	case gamification.NotifyMilestone:
		return streakStyle.Render("Milestone: " + n.Title)
	case gamification.NotifyReward:
		r := n.Reward
		return rarityStyle(r.Rarity).Render("Reward unlocked: "+r.Name) +
			dimStyle.Render(" ("+string(r.Kind)+")")
	default:
		return bodyStyle.Render(n.Title)
	}
}

func levelLine(l progress.LevelSystem) string {
	pct := 1.0
	if span := l.CurrentXP + l.XPToNextLevel; l.XPToNextLevel > 0 && span > 0 {
		pct = float64(l.CurrentXP) / float64(span)
	}
	label := fmt.Sprintf("Lv %d %s", l.CurrentLevel, l.Title)
	return NewProgressBar(label, pct, true, barWidth).View() +
		dimStyle.Render(fmt.Sprintf("  %d XP total", l.TotalXP))
}

// Stats renders the learner dashboard.
func Stats(st progress.State, locked []rewards.LockedProgress) string {
	p := st.Progress
	var sections []string

	sections = append(sections, titleStyle.Render("Learner "+st.LearnerID))
	sections = append(sections, levelLine(p.Level))
	sections = append(sections, streakStyle.Render(fmt.Sprintf("Streak %d days", p.Streak.CurrentStreak))+
		dimStyle.Render(fmt.Sprintf("  (best %d)", p.Streak.LongestStreak)))
	sections = append(sections, NewProgressBar("Health literacy", p.HealthLiteracy.Overall/100, true, barWidth).View())
	sections = append(sections, dimStyle.Render(fmt.Sprintf(
		"Time: %d min total, %d this week, %.1f/day", p.TimeTracking.TotalMinutes, p.TimeTracking.WeekMinutes, p.TimeTracking.DailyAverage)))

	if ids := p.SpecialtyIDs(); len(ids) > 0 {
		rows := []string{headingStyle.Render("Specialties")}
		for _, id := range ids {
			sp := p.Specialties[id]
			label := fmt.Sprintf("%-16s %d/%d", id, sp.CompletedModules, sp.TotalModules)
			rows = append(rows, NewProgressBar(label, sp.CompletionPercentage/100, true, barWidth).View())
		}
		sections = append(sections, strings.Join(rows, "\n"))
	}

	sections = append(sections, achievementSection(st))
	if len(locked) > 0 {
		sections = append(sections, rewardSection(st, locked))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func achievementSection(st progress.State) string {
	rows := []string{headingStyle.Render(fmt.Sprintf("Achievements %d/%d", len(st.UnlockedAchievements), len(achievements.Catalog()))) +
		dimStyle.Render(fmt.Sprintf("  %d pts", st.Progress.AchievementPoints))}
	unlocked := append([]progress.UnlockedAchievement(nil), st.UnlockedAchievements...)
	sort.Slice(unlocked, func(i, j int) bool { return unlocked[i].UnlockedAt.After(unlocked[j].UnlockedAt) })
	for _, u := range unlocked {
		a, ok := achievements.Lookup(u.ID)
		if !ok {
			continue
		}
		rows = append(rows, rarityStyle(a.Rarity).Render(fmt.Sprintf("  %s %s", a.Icon, a.Name))+
			dimStyle.Render("  "+u.UnlockedAt.Format("2006-01-02")))
	}
	return strings.Join(rows, "\n")
}

func rewardSection(st progress.State, locked []rewards.LockedProgress) string {
	rows := []string{headingStyle.Render(fmt.Sprintf("Rewards %d unlocked, %d locked", len(st.UnlockedRewards), len(locked)))}
	for _, lp := range locked {
		var need []string
		if lp.LevelsRemaining > 0 {
			need = append(need, fmt.Sprintf("%d levels", lp.LevelsRemaining))
		}
		if lp.StreakDaysRemaining > 0 {
			need = append(need, fmt.Sprintf("%d streak days", lp.StreakDaysRemaining))
		}
		need = append(need, lp.MissingAchievements...)
		rows = append(rows, NewProgressBar("  "+lp.Name, lp.Percent/100, true, barWidth).View()+
			dimStyle.Render("  needs "+strings.Join(need, ", ")))
	}
	return strings.Join(rows, "\n")
}

// History renders the activity log as a table.
func History(records []store.ActivityRecord) string {
	if len(records) == 0 {
		return dimStyle.Render("No activity recorded.")
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("%-5s  %-19s  %-18s  %5s", "Seq", "Time", "Type", "XP")))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 52)))
	for _, r := range records {
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(fmt.Sprintf("%-5d  %-19s  %-18s  %5d",
			r.Sequence, r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Kind, r.XPAwarded)))
	}
	return b.String()
}
