package achievements

import (
	"fmt"
	"sort"
)

// Literacy thresholds are compared on a 0-100 scale truncated to an int.
const expertLiteracyThreshold = 80

func modulesCompleted(s Snapshot) int { return s.Progress.Activity.ModulesCompleted }
func quizzesTaken(s Snapshot) int { return s.Progress.Activity.QuizzesTaken }
func perfectQuizzes(s Snapshot) int { return s.Progress.Activity.PerfectQuizzes }
func longestStreak(s Snapshot) int { return s.Progress.Streak.LongestStreak }
func totalMinutes(s Snapshot) int { return s.Progress.TimeTracking.TotalMinutes }
func contentShares(s Snapshot) int { return s.Progress.Activity.ContentShares }
func labReviews(s Snapshot) int { return s.Progress.Activity.LabReviews }
func teachingSessions(s Snapshot) int { return s.Progress.Activity.TeachingSessions }
func currentLevel(s Snapshot) int { return s.Progress.Level.CurrentLevel }
func literacyOverall(s Snapshot) int { return int(s.Progress.HealthLiteracy.Overall) }
func activeSpecialties(s Snapshot) int { return countSpecialties(s, func(_ float64, active bool) bool { return active }) }

func completedSpecialties(s Snapshot) int {
	return countSpecialties(s, func(pct float64, _ bool) bool { return pct >= 100 })
}

func countSpecialties(s Snapshot, match func(pct float64, active bool) bool) int {
	n := 0
	for _, sp := range s.Progress.Specialties {
		if sp != nil && match(sp.CompletionPercentage, sp.HasActivity()) {
			n++
		}
	}
	return n
}

// masterTeacher requires ten teaching sessions averaging at least 80 quality.
func masterTeacher(s Snapshot) bool {
	a := s.Progress.Activity
	return a.TeachingSessions >= 10 && a.AverageTeachingQuality() >= 80
}

// threshold builds a metric >= target achievement.
func threshold(id, name, desc, icon string, cat Category, r Rarity, points int, m Metric, target int) Achievement {
	return Achievement{
		ID:          id,
		Name:        name,
		Description: desc,
		Icon:        icon,
		Category:    cat,
		Rarity:      r,
		Points:      points,
		Condition:   func(s Snapshot) bool { return m(s) >= target },
		Metric:      m,
		Target:      target,
	}
}

var catalog = buildCatalog()

func buildCatalog() []Achievement {
	list := []Achievement{
		threshold("first_module", "First Steps", "Complete your first module", "📘", CategoryMilestone, RarityCommon, 10, modulesCompleted, 1),
		threshold("modules_10", "Bookworm", "Complete 10 modules", "📚", CategoryMilestone, RarityRare, 25, modulesCompleted, 10),
		threshold("modules_50", "Scholar", "Complete 50 modules", "🏛️", CategoryMilestone, RarityEpic, 100, modulesCompleted, 50),

		threshold("first_quiz", "Quiz Taker", "Finish your first quiz", "✏️", CategoryQuiz, RarityCommon, 10, quizzesTaken, 1),
		threshold("perfect_quiz", "Flawless", "Score 100% on a quiz", "💯", CategoryQuiz, RarityRare, 25, perfectQuizzes, 1),
		threshold("perfect_10", "Perfectionist", "Score 100% on 10 quizzes", "🏅", CategoryQuiz, RarityEpic, 75, perfectQuizzes, 10),

		threshold("streak_3", "Warming Up", "Learn 3 days in a row", "🔥", CategoryEngagement, RarityCommon, 15, longestStreak, 3),
		threshold("streak_7", "Week Warrior", "Learn 7 days in a row", "⚡", CategoryEngagement, RarityRare, 30, longestStreak, 7),
		threshold("streak_30", "Habit Formed", "Learn 30 days in a row", "🌟", CategoryEngagement, RarityEpic, 100, longestStreak, 30),
		threshold("streak_100", "Unstoppable", "Learn 100 days in a row", "👑", CategoryEngagement, RarityLegendary, 250, longestStreak, 100),
		threshold("hour_learner", "Hour of Power", "Spend 60 minutes learning", "⏱️", CategoryEngagement, RarityCommon, 10, totalMinutes, 60),
		threshold("dedicated_learner", "Dedicated Learner", "Spend 10 hours learning", "⏳", CategoryEngagement, RarityRare, 40, totalMinutes, 600),

		threshold("first_share", "Spread the Word", "Share content with someone", "📣", CategorySocial, RarityCommon, 10, contentShares, 1),
		threshold("shares_10", "Health Ambassador", "Share content 10 times", "🌍", CategorySocial, RarityRare, 30, contentShares, 10),

		threshold("specialty_explorer", "Explorer", "Learn in 3 different specialties", "🧭", CategorySpecialty, RarityRare, 30, activeSpecialties, 3),
		threshold("specialty_master", "Specialist", "Complete every module in a specialty", "🩺", CategorySpecialty, RarityEpic, 100, completedSpecialties, 1),
		threshold("polymath", "Polymath", "Complete every module in 5 specialties", "🧬", CategorySpecialty, RarityLegendary, 300, completedSpecialties, 5),

		threshold("first_lab_review", "Lab Curious", "Review your first lab result", "🧪", CategoryLab, RarityCommon, 10, labReviews, 1),
		threshold("lab_reviews_10", "Lab Analyst", "Review 10 lab results", "🔬", CategoryLab, RarityRare, 40, labReviews, 10),

		threshold("level_10", "Rising Expert", "Reach level 10", "📈", CategoryExpert, RarityEpic, 75, currentLevel, 10),
		threshold("health_literacy_80", "Health Literate", "Reach a health literacy score of 80", "🎓", CategoryExpert, RarityLegendary, 200, literacyOverall, expertLiteracyThreshold),
		threshold("first_teaching", "Teach-Back", "Explain a topic in your own words", "🗣️", CategoryExpert, RarityRare, 25, teachingSessions, 1),
		{
			ID:          "master_teacher",
			Name:        "Master Teacher",
			Description: "Complete 10 teaching sessions averaging 80 quality or better",
			Icon:        "🧑‍🏫",
			Category:    CategoryExpert,
			Rarity:      RarityLegendary,
			Points:      250,
			Condition:   masterTeacher,
			Metric:      teachingSessions,
			Target:      10,
		},
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if err := ValidateCatalog(list); err != nil {
		panic(err)
	}
	return list
}

// Catalog returns the achievement catalog sorted by id.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Achievement, bool) {
	i := sort.Search(len(catalog), func(i int) bool { return catalog[i].ID >= id })
	if i < len(catalog) && catalog[i].ID == id {
		return catalog[i], true
	}
	return Achievement{}, false
}

// ValidateCatalog checks that ids are unique and every entry has exactly one
// known category and rarity plus a condition.
func ValidateCatalog(list []Achievement) error {
	seen := make(map[string]bool, len(list))
	for _, a := range list {
		if a.ID == "" {
			return fmt.Errorf("achievement with empty id")
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate achievement id %q", a.ID)
		}
		seen[a.ID] = true
		if !a.Category.Valid() {
			return fmt.Errorf("achievement %q: unknown category %q", a.ID, a.Category)
		}
		if !a.Rarity.Valid() {
			return fmt.Errorf("achievement %q: unknown rarity %q", a.ID, a.Rarity)
		}
		if a.Condition == nil {
			return fmt.Errorf("achievement %q: missing condition", a.ID)
		}
	}
	return nil
}
