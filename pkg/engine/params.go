package engine

import "time"

// defaultCloudCoverPct is the original's parameter_normalizer.py default
// for max_cloud_cover.
const defaultCloudCoverPct = 20.0

// NormalizeParams fills in indicator-specific defaults for any zero-valued
// field, implementing SPEC_FULL.md §4 item 1 (supplemented from
// original_source/backend/app/services/gee/parameter_normalizer.py):
// NDVI defaults to the last full calendar year, LST to the last 8-day
// MODIS-like period, LULC to the latest annual epoch, Water to its full
// history window. now is injected rather than read from time.Now() so
// callers (and tests) control the reference date.
func NormalizeParams(indicator Indicator, p Params, now time.Time) Params {
	if p.CloudCoverPct <= 0 || p.CloudCoverPct > 100 {
		p.CloudCoverPct = defaultCloudCoverPct
	}
	if p.WaterThreshold <= 0 {
		p.WaterThreshold = 0.20
	}
	if p.LULCConfidence <= 0 {
		p.LULCConfidence = 0.5
	}

	if p.DateStart != "" && p.DateEnd != "" {
		return p
	}

	switch indicator {
	case IndicatorNDVI:
		lastYear := now.Year() - 1
		p.DateStart = dateString(lastYear, 1, 1)
		p.DateEnd = dateString(lastYear, 12, 31)
	case IndicatorLST:
		end := now
		start := end.AddDate(0, 0, -8)
		p.DateStart = start.Format("2006-01-02")
		p.DateEnd = end.Format("2006-01-02")
	case IndicatorLULC:
		epochYear := now.Year() - 1
		p.DateStart = dateString(epochYear, 1, 1)
		p.DateEnd = dateString(epochYear, 12, 31)
	case IndicatorWater:
		p.DateStart = "1984-01-01"
		p.DateEnd = now.Format("2006-01-02")
	}
	return p
}

func dateString(year, month, day int) string {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// referenceNow is the injection point NormalizeParams documents: indicator
// Analyze* methods call it instead of time.Now() directly so a future
// request-scoped clock can be threaded through without touching every call
// site.
func referenceNow() time.Time {
	return time.Now()
}
