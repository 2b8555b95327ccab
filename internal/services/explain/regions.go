package explain

import (
	"cmp"
	"math"
	"slices"

	"CosmicOptic/internal/domain/models"
)

// topRegions groups maximal runs whose |importance| exceeds the configured
// percentile and returns the strongest ones by mean |importance|.
func (e *Engine) topRegions(imp, times []float64) []models.TopRegion {
	out := []models.TopRegion{}
	n := min(len(imp), len(times))
	if n == 0 {
		return out
	}

	abs := make([]float64, n)
	for i := range abs {
		abs[i] = math.Abs(imp[i])
	}
	threshold := percentile(abs, e.percentile)

	emit := func(start, end int) {
		m := mean(imp[start:end])
		if math.IsNaN(m) {
			m = 0
		}
		out = append(out, models.TopRegion{
			StartTime:           times[start],
			EndTime:             times[end-1],
			Importance:          m,
			ContributionPercent: math.Abs(m) * 100,
		})
	}

	start := -1
	for i, a := range abs {
		hot := a > threshold
		switch {
		case hot && start < 0:
			start = i
		case !hot && start >= 0:
			emit(start, i)
			start = -1
		}
	}
	if start >= 0 {
		emit(start, n)
	}

	slices.SortStableFunc(out, func(a, b models.TopRegion) int {
		return cmp.Compare(math.Abs(b.Importance), math.Abs(a.Importance))
	})
	if len(out) > e.topK {
		out = out[:e.topK]
	}
	return out
}
