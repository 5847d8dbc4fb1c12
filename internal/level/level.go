package level

import "github.com/medilearn/healthxp/internal/progress"

// MaxLevel is the highest reachable level. XP beyond its threshold still
// accrues but no longer changes the level.
const MaxLevel = 50

// xpStep is the cost of leaving level 1; each later level costs one more step.
const xpStep = 100

// Info is the result of inverting the threshold function.
type Info struct {
	Level         int
	CurrentXP     int // XP earned since reaching Level
	XPToNextLevel int // 0 at MaxLevel
}

// XPForLevel returns the lifetime XP needed to reach level.
// Thresholds are 0, 100, 300, 600, ... and strictly increasing from level 1.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return xpStep * level * (level - 1) / 2
}

// LevelFromXP finds the greatest level whose threshold is <= totalXP.
func LevelFromXP(totalXP int) Info {
	if totalXP < 0 {
		totalXP = 0
	}
	lvl := 1
	for lvl < MaxLevel && XPForLevel(lvl+1) <= totalXP {
		lvl++
	}
	info := Info{
		Level:     lvl,
		CurrentXP: totalXP - XPForLevel(lvl),
	}
	if lvl < MaxLevel {
		info.XPToNextLevel = XPForLevel(lvl+1) - totalXP
	}
	return info
}

// NewSystem builds the derived LevelSystem for a lifetime XP total.
func NewSystem(totalXP int) progress.LevelSystem {
	if totalXP < 0 {
		totalXP = 0
	}
	info := LevelFromXP(totalXP)
	return progress.LevelSystem{
		CurrentLevel:  info.Level,
		CurrentXP:     info.CurrentXP,
		TotalXP:       totalXP,
		XPToNextLevel: info.XPToNextLevel,
		Title:         Title(info.Level),
	}
}

type titleEntry struct {
	minLevel int
	title    string
}

// titles must stay sorted by minLevel.
var titles = []titleEntry{
	{1, "Health Novice"},
	{3, "Curious Learner"},
	{5, "Informed Patient"},
	{10, "Health Advocate"},
	{15, "Wellness Scholar"},
	{20, "Medical Enthusiast"},
	{30, "Health Expert"},
	{40, "Literacy Champion"},
	{MaxLevel, "Health Literacy Master"},
}

// Title returns the display title for a level. Levels past the table reuse
// the top title.
func Title(level int) string {
	t := titles[0].title
	for _, e := range titles {
		if level < e.minLevel {
			break
		}
		t = e.title
	}
	return t
}
