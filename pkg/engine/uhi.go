package engine

import "sort"

// UHIMethod names the cascade stage that produced uhi_intensity, per
// spec §4.4.5.
type UHIMethod string

const (
	UHIDynamicWorld  UHIMethod = "dynamic_world"
	UHIModisLC       UHIMethod = "modis_lc"
	UHIEsaWorldCover UHIMethod = "esa_worldcover"
	UHIStatistical   UHIMethod = "statistical"
	UHIErrorFallback UHIMethod = "error_fallback"
)

// UHIResult carries the intensity, the method that produced it, and pixel
// counts for the winning classification, per spec §4.4.5.
type UHIResult struct {
	IntensityC float64
	Method     UHIMethod
	UrbanCount int
	RuralCount int
}

// LandcoverSample is one pixel's LST value tagged with a landcover class
// code, used by all three classification-based UHI methods.
type LandcoverSample struct {
	LST   float64
	Class int
}

// ComputeUHI implements spec §4.4.5's four-method cascade: Dynamic-World-like,
// MODIS-like annual LC, ESA-WorldCover-like, then a statistical fallback
// that succeeds whenever lstValues is non-empty. lstValues is every LST pixel in the ROI, used only
// by the statistical method.
func ComputeUHI(dynamicWorld, modisLC, esaWorldCover []LandcoverSample, lstValues []float64) UHIResult {
	if res, ok := classifyUHI(dynamicWorld, urbanDynamicWorld, ruralDynamicWorld, 3, UHIDynamicWorld); ok {
		return res
	}
	if res, ok := classifyUHI(modisLC, urbanModis, ruralModis, 2, UHIModisLC); ok {
		return res
	}
	if res, ok := classifyUHI(esaWorldCover, urbanEsa, ruralEsa, 5, UHIEsaWorldCover); ok {
		return res
	}
	return statisticalUHI(lstValues)
}

func urbanDynamicWorld(class int) bool { return class == 6 } // "built", per spec §4.4.2's 9-class table
func ruralDynamicWorld(class int) bool {
	switch class {
	case 1, 2, 4: // trees, grass, crops (Dynamic-World-like palette order)
		return true
	case 5: // shrub/scrub
		return true
	default:
		return false
	}
}

func urbanModis(class int) bool { return class == 13 }
func ruralModis(class int) bool {
	switch class {
	case 10, 12, 1, 4, 5:
		return true
	default:
		return false
	}
}

func urbanEsa(class int) bool { return class == 50 }
func ruralEsa(class int) bool {
	switch class {
	case 10, 20, 30, 40:
		return true
	default:
		return false
	}
}

func classifyUHI(samples []LandcoverSample, isUrban, isRural func(int) bool, minPixels int, method UHIMethod) (UHIResult, bool) {
	var urbanSum, ruralSum float64
	var urbanN, ruralN int
	for _, s := range samples {
		switch {
		case isUrban(s.Class):
			urbanSum += s.LST
			urbanN++
		case isRural(s.Class):
			ruralSum += s.LST
			ruralN++
		}
	}
	if urbanN < minPixels || ruralN < minPixels {
		return UHIResult{}, false
	}

	urbanMean := urbanSum / float64(urbanN)
	ruralMean := ruralSum / float64(ruralN)
	intensity := urbanMean - ruralMean
	if intensity < 0 {
		intensity = 0
	}
	return UHIResult{IntensityC: intensity, Method: method, UrbanCount: urbanN, RuralCount: ruralN}, true
}

// statisticalUHI computes UHI := p90(LST) - p10(LST), per spec §4.4.5
// method 4, for any non-empty lstValues. An empty slice yields intensity 0
// with method error_fallback.
func statisticalUHI(lstValues []float64) UHIResult {
	if len(lstValues) == 0 {
		return UHIResult{Method: UHIErrorFallback}
	}
	sorted := append([]float64(nil), lstValues...)
	sort.Float64s(sorted)
	p90 := percentile(sorted, 0.90)
	p10 := percentile(sorted, 0.10)
	return UHIResult{IntensityC: p90 - p10, Method: UHIStatistical, UrbanCount: len(sorted), RuralCount: len(sorted)}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
