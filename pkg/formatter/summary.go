package formatter

import (
	"fmt"
	"strings"

	"github.com/geoqa/geoqa/pkg/dispatcher"
	"github.com/geoqa/geoqa/pkg/intent"
)

// buildSummary implements _build_natural_language_summary: a short
// value-bucket template per analysis type, reading straight off the
// engine's mapStats rather than the original's loosely-typed
// analysis_data dict.
func buildSummary(it *intent.IntentResult, result *dispatcher.DispatchResult) string {
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Sprintf("Sorry, I encountered an issue while processing your request: %s. Please try again later.", msg)
	}

	if result.ServiceUsed != dispatcher.ServiceUsedGEE || result.Analysis == nil {
		return genericSummary(it)
	}

	stats := result.Analysis.MapStats
	switch strings.ToLower(it.AnalysisType) {
	case "water":
		return waterSummary(stats)
	case "ndvi":
		return ndviSummary(stats)
	case "lulc":
		return lulcSummary(stats)
	case "lst":
		return lstSummary(stats)
	}
	return genericSummary(it)
}

func genericSummary(it *intent.IntentResult) string {
	t := strings.TrimSpace(it.AnalysisType)
	if t == "" {
		return "Geospatial analysis was completed successfully."
	}
	return strings.Title(t) + " analysis was completed successfully."
}

func waterSummary(stats map[string]any) string {
	wp, ok := floatField(stats, "water_percentage")
	if !ok {
		return "Water coverage analysis was performed. Check the detailed results for specific percentages."
	}
	switch {
	case wp > 50:
		return fmt.Sprintf("The area shows extensive water coverage at %.1f%%, indicating significant water bodies, lakes, or coastal regions.", wp)
	case wp > 20:
		return fmt.Sprintf("Moderate water coverage of %.1f%% was found, suggesting mixed land-water usage.", wp)
	default:
		return fmt.Sprintf("Low water coverage at %.1f%% indicates mostly dry land with limited water features.", wp)
	}
}

func ndviSummary(stats map[string]any) string {
	mean, ok := floatField(stats, "NDVI_mean")
	if !ok {
		return "Vegetation health analysis was completed. Review the detailed results for NDVI values."
	}
	var health string
	switch {
	case mean > 0.6:
		health = "excellent vegetation health"
	case mean > 0.4:
		health = "good vegetation health"
	case mean > 0.2:
		health = "moderate vegetation health"
	default:
		health = "sparse or stressed vegetation"
	}
	return fmt.Sprintf("Vegetation analysis shows %s with an average NDVI of %.3f.", health, mean)
}

func lulcSummary(stats map[string]any) string {
	dom, ok := stats["dominant_class"].(string)
	if !ok || dom == "" {
		return "Land cover classification analysis was completed. Check the detailed results for land use distribution."
	}
	return fmt.Sprintf("Land cover analysis reveals %s as the dominant land use type in the selected area.", dom)
}

func lstSummary(stats map[string]any) string {
	mean, ok := floatField(stats, "LST_mean")
	if !ok {
		return "Surface temperature analysis was completed. Check detailed results for temperature metrics."
	}
	var desc string
	switch {
	case mean > 40:
		desc = "hot"
	case mean > 30:
		desc = "warm"
	case mean > 20:
		desc = "moderate"
	default:
		desc = "cool"
	}
	summary := fmt.Sprintf("The area has a %s surface temperature averaging %.1f°C.", desc, mean)

	if uhi, ok := floatField(stats, "uhi_intensity"); ok {
		switch {
		case uhi > 5:
			summary += fmt.Sprintf(" A significant urban heat island effect of %.1f°C was detected.", uhi)
		case uhi > 2:
			summary += fmt.Sprintf(" Moderate urban heat island effect of %.1f°C observed.", uhi)
		default:
			summary += " Minimal urban heat island effect detected."
		}
	}
	return summary
}

func floatField(stats map[string]any, key string) (float64, bool) {
	if stats == nil {
		return 0, false
	}
	v, ok := stats[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
