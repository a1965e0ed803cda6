package engine

import "time"

// Indicator enumerates the four analysis operations the engine exposes,
// per spec §4.4.
type Indicator string

const (
	IndicatorNDVI  Indicator = "NDVI"
	IndicatorLST   Indicator = "LST"
	IndicatorLULC  Indicator = "LULC"
	IndicatorWater Indicator = "WATER"
)

// GeometryType records whether the ROI fit in a single reduce_region call or
// had to be tiled, per spec §3's AnalysisResult shape.
type GeometryType string

const (
	GeometrySinglePolygon GeometryType = "single_polygon"
	GeometryTiledPolygon  GeometryType = "tiled_polygon"
)

// ErrorType mirrors the engine-local subset of spec §4.4.10's failure table.
type ErrorType string

const (
	ErrNoData             ErrorType = "no_data"
	ErrQuotaExceeded      ErrorType = "quota_exceeded"
	ErrTimeout            ErrorType = "timeout"
	ErrProcessing         ErrorType = "processing_error"
	ErrAreaTooLarge       ErrorType = "area_too_large"
	ErrBackendUnavailable ErrorType = "backend_unavailable"
)

// Params carries per-call analysis parameters. DateStart/DateEnd default
// per indicator when empty (pkg/engine/params.go); CloudCoverPct defaults
// to 20 for NDVI.
type Params struct {
	DateStart     string
	DateEnd       string
	CloudCoverPct float64
	WaterThreshold float64 // default 0.20, spec §4.4.2
	LULCConfidence float64 // default 0.5, spec §4.4.2
}

// AnalysisResult is the engine's per-indicator output, per spec §3.
type AnalysisResult struct {
	AnalysisType       string                 `json:"analysis_type"`
	GeometryType       GeometryType           `json:"geometry_type"`
	ROIAreaKM2         float64                `json:"roi_area_km2"`
	URLFormat          string                 `json:"urlFormat"`
	MapStats           map[string]any         `json:"mapStats"`
	DatasetsUsed       []string               `json:"datasets_used"`
	ProcessingTimeSecs float64                `json:"processing_time_seconds"`
	Metadata           map[string]any         `json:"metadata"`
	Success            bool                   `json:"success"`
	Error              string                 `json:"error,omitempty"`
	ErrorType          ErrorType              `json:"error_type,omitempty"`
}

// areaBudgetKM2 is the indicator-specific single-polygon pixel budget, per
// spec §4.4.1's worked examples (NDVI 5,000 km² at 30m, LST 20,000 km² at
// 1km). LULC (8,000 km²) and Water (10,000 km²) use fixed budgets of their
// own.
func areaBudgetKM2(indicator Indicator) float64 {
	switch indicator {
	case IndicatorNDVI:
		return 5000
	case IndicatorLST:
		return 20000
	case IndicatorLULC:
		return 8000
	case IndicatorWater:
		return 10000
	default:
		return 5000
	}
}

// baseScaleMeters is the native pixel scale per indicator, used for scale
// adaptation (spec §4.4.3) and point-sample buffering (spec §4.4.8).
func baseScaleMeters(indicator Indicator) float64 {
	switch indicator {
	case IndicatorNDVI:
		return 30
	case IndicatorLST:
		return 1000
	case IndicatorLULC:
		return 10
	case IndicatorWater:
		return 30
	default:
		return 30
	}
}

// sampleFloorMeters is the minimum point-sample buffer per indicator, per
// spec §4.4.8.
func sampleFloorMeters(indicator Indicator) float64 {
	switch indicator {
	case IndicatorLST:
		return 250
	case IndicatorNDVI:
		return 15
	case IndicatorWater:
		return 30
	default:
		return 30
	}
}

// engineDeadline bounds one analyze_<indicator> call (distinct from the
// 30s generate_grid deadline in spec §4.4.7); configured by pkg/config's
// ENGINE_DEADLINE_SECS, defaulted here.
const defaultEngineDeadline = 60 * time.Second
