package explain

import (
	"fmt"

	"CosmicOptic/internal/domain/models"
)

// Summarize renders the templated rationale for an explanation.
func Summarize(label models.Label, confidence float64, top []models.TopRegion, transits []models.TransitRegion) string {
	pct := confidence * 100
	var strongest *models.TopRegion
	if len(top) > 0 {
		strongest = &top[0]
	}

	if label == models.LabelExoplanet {
		if len(transits) == 0 {
			return fmt.Sprintf("Model detected EXOPLANET with %.1f%% confidence, though no clear transit regions were identified. "+
				"This may indicate a subtle or complex signal.", pct)
		}
		plural := ""
		if len(transits) > 1 {
			plural = "s"
		}
		evidence := ""
		if strongest != nil && strongest.Importance > 0 {
			evidence = fmt.Sprintf(" The strongest supporting evidence appears at %.1f-%.1f days (contributing +%.1f%% toward exoplanet classification).",
				strongest.StartTime, strongest.EndTime, strongest.ContributionPercent)
		}
		return fmt.Sprintf("Model detected EXOPLANET with %.1f%% confidence based on %d periodic transit event%s.%s "+
			"Blue/positive SHAP regions show transit dips that SUPPORT the exoplanet detection.", pct, len(transits), plural, evidence)
	}

	reason := "lack of convincing periodic transit patterns"
	if strongest != nil {
		if strongest.Importance > 0 {
			reason = fmt.Sprintf("high noise/variability at %.1f-%.1f days (+%.1f%%)",
				strongest.StartTime, strongest.EndTime, strongest.ContributionPercent)
		} else {
			reason = fmt.Sprintf("suspicious dips at %.1f-%.1f days were insufficient evidence (%.1f%%)",
				strongest.StartTime, strongest.EndTime, strongest.ContributionPercent)
		}
	}
	return fmt.Sprintf("Model classified as NO PLANET with %.1f%% confidence due to %s. "+
		"Blue/positive SHAP shows features SUPPORTING rejection (noise, irregularity), "+
		"while red/negative shows weak transit-like features that were insufficient.", pct, reason)
}
