package achievements

import (
	"fmt"
	"time"

	"github.com/medilearn/healthxp/internal/logger"
	"github.com/medilearn/healthxp/internal/progress"
)

// Evaluator decides which catalog achievements newly hold for a snapshot.
type Evaluator struct {
	catalog []Achievement
	log     *logger.Logger
}

// NewEvaluator creates an Evaluator over the built-in catalog.
func NewEvaluator(log *logger.Logger) *Evaluator {
	return NewEvaluatorWithCatalog(catalog, log)
}

// NewEvaluatorWithCatalog creates an Evaluator over a custom catalog. The
// catalog is evaluated in the order given.
func NewEvaluatorWithCatalog(list []Achievement, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	c := make([]Achievement, len(list))
	copy(c, list)
	return &Evaluator{catalog: c, log: log.With("component", "achievements")}
}

// Evaluate returns an Unlock for every achievement that is not in unlocked
// and whose condition holds. A condition that panics is logged and skipped;
// the rest of the catalog is still evaluated.
func (e *Evaluator) Evaluate(snap Snapshot, unlocked map[string]bool, now time.Time) []Unlock {
	var out []Unlock
	for _, a := range e.catalog {
		if unlocked[a.ID] {
			continue
		}
		ok, err := safeCheck(a, snap)
		if err != nil {
			e.log.Warn("achievement condition failed", "achievement_id", a.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, newUnlock(a, now))
	}
	return out
}

// Progress reports partial progress for locked achievements that expose a
// metric, keyed by achievement id.
func (e *Evaluator) Progress(snap Snapshot, unlocked map[string]bool) map[string]Progress {
	out := make(map[string]Progress)
	for _, a := range e.catalog {
		if unlocked[a.ID] || a.Metric == nil {
			continue
		}
		cur, err := safeMetric(a, snap)
		if err != nil {
			e.log.Warn("achievement metric failed", "achievement_id", a.ID, "error", err)
			continue
		}
		out[a.ID] = Progress{Current: cur, Target: a.Target}
	}
	return out
}

func newUnlock(a Achievement, now time.Time) Unlock {
	pres := PresentationFor(a.Rarity)
	return Unlock{
		Achievement: a,
		Unlocked: progress.UnlockedAchievement{
			ID:         a.ID,
			Category:   string(a.Category),
			Rarity:     string(a.Rarity),
			Points:     a.Points,
			UnlockedAt: now.UTC(),
		},
		Notification: Notification{
			AchievementID: a.ID,
			Name:          a.Name,
			Rarity:        a.Rarity,
			Points:        a.Points,
			ShowConfetti:  pres.ShowConfetti,
			AutoDismiss:   pres.AutoDismiss,
		},
	}
}

func safeCheck(a Achievement, snap Snapshot) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("condition %q panicked: %v", a.ID, r)
		}
	}()
	return a.Condition(snap), nil
}

func safeMetric(a Achievement, snap Snapshot) (v int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("metric %q panicked: %v", a.ID, r)
		}
	}()
	return a.Metric(snap), nil
}
