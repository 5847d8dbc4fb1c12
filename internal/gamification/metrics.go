package gamification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsApplied counts applied events by type and result.
	eventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthxp_events_applied_total",
		Help: "Learning events processed by type and result",
	}, []string{"type", "result"})

	// achievementsUnlocked counts achievement unlocks by rarity.
	achievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthxp_achievements_unlocked_total",
		Help: "Achievements unlocked by rarity",
	}, []string{"rarity"})

	// rewardsUnlocked counts reward unlocks by rarity.
	rewardsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthxp_rewards_unlocked_total",
		Help: "Rewards unlocked by rarity",
	}, []string{"rarity"})

	// persistFailures counts state saves that failed after all retries.
	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthxp_persist_failures_total",
		Help: "State saves that failed after retries",
	})
)

func recordOutcome(out Outcome) {
	result := "applied"
	if out.Duplicate {
		result = "duplicate"
	}
	eventsApplied.WithLabelValues(string(out.Event), result).Inc()
	for _, u := range out.Achievements {
		achievementsUnlocked.WithLabelValues(string(u.Achievement.Rarity)).Inc()
	}
	for _, u := range out.Rewards {
		rewardsUnlocked.WithLabelValues(string(u.Reward.Rarity)).Inc()
	}
}
