package engine

// Palettes grounded on
// original_source/backend/app/services/gee/parameter_normalizer.py's
// vis_params tables (NDVI red-yellow-green ramp, LST blue-red ramp,
// Dynamic-World-like 9-class palette, JRC water blue scale).
var (
	ndviPalette  = []string{"#d73027", "#fee08b", "#ffffbf", "#d9ef8b", "#1a9850"}
	lstPalette   = []string{"#2166ac", "#67a9cf", "#fddbc7", "#ef8a62", "#b2182b"}
	lulcPalette  = []string{"#419bdf", "#397d49", "#88b053", "#7a87c6", "#e49635", "#dfc35a", "#c4281b", "#a59b8f", "#b39fe1"}
	waterPalette = []string{"#ffffff", "#9ecae1", "#08306b"}
)

// lulcClassNames is the 9-class Dynamic-World-like name table, per spec
// §4.4.2.
var lulcClassNames = []string{
	"water", "trees", "grass", "flooded_vegetation", "crops",
	"shrub_and_scrub", "built", "bare", "snow_and_ice",
}

func visParamsFor(indicator Indicator) VisParams {
	switch indicator {
	case IndicatorNDVI:
		return VisParams{Bands: []string{"NDVI"}, Min: -1, Max: 1, Palette: ndviPalette}
	case IndicatorLST:
		return VisParams{Bands: []string{"LST"}, Min: -10, Max: 50, Palette: lstPalette}
	case IndicatorLULC:
		return VisParams{Bands: []string{"label"}, Min: 0, Max: 8, Palette: lulcPalette}
	case IndicatorWater:
		return VisParams{Bands: []string{"occurrence"}, Min: 0, Max: 2, Palette: waterPalette}
	default:
		return VisParams{}
	}
}

func lulcClassName(code int) string {
	if code < 0 || code >= len(lulcClassNames) {
		return "unknown"
	}
	return lulcClassNames[code]
}
