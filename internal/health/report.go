package health

import (
	"math"

	"github.com/forceweaver/orghealth/internal/core"
)

// Aggregate folds check results into score, grade and summary. Skipped
// checks are excluded from both sides of the ratio; a warning splits its
// weight between success and failure. With nothing left in the denominator
// there is no score, only an insufficient-data marker.
func Aggregate(results []core.CheckResult) (score *float64, grade string, insufficient bool, summary core.ReportSummary) {
	var okWeight, warnWeight, errWeight float64

	summary.TotalChecks = len(results)
	for _, r := range results {
		weight := r.Weight
		if weight <= 0 {
			weight = 1
		}
		switch r.Status {
		case core.StatusOK:
			summary.OK++
			okWeight += weight
		case core.StatusWarning:
			summary.Warnings++
			warnWeight += weight
		case core.StatusError:
			summary.Errors++
			errWeight += weight
		case core.StatusSkipped:
			summary.Skipped++
		}
	}

	denominator := okWeight + warnWeight + errWeight
	if denominator == 0 {
		return nil, "", true, summary
	}

	value := math.Round((okWeight+0.5*warnWeight)/denominator*100*100) / 100
	return &value, GradeFor(value), false, summary
}

func GradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func stateFor(summary core.ReportSummary) core.ReportState {
	if summary.Errors == 0 && summary.Skipped == 0 {
		return core.StateCompleted
	}
	return core.StatePartiallyCompleted
}
