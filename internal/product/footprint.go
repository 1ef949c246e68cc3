package product

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/venicegeo/geojson-go/geojson"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
)

// ErrNoCorners is returned when the metadata carries no product corners
var ErrNoCorners = errors.New("metadata has no product corners")

// Footprint describes the scene outline as a GeoJSON feature, built from the
// product corners of the metadata document
func Footprint(sceneID string, meta *landsat.Metadata) (*geojson.Feature, error) {
	if meta == nil || meta.Corners == nil {
		return nil, ErrNoCorners
	}

	c := meta.Corners
	ring := [][]float64{
		{c.UL.Lon, c.UL.Lat},
		{c.UR.Lon, c.UR.Lat},
		{c.LR.Lon, c.LR.Lat},
		{c.LL.Lon, c.LL.Lat},
		{c.UL.Lon, c.UL.Lat},
	}

	properties := map[string]interface{}{
		"productID":  meta.ProductID,
		"spacecraft": meta.SpacecraftID,
	}
	if !meta.DateAcquired.IsZero() {
		properties["acquiredDate"] = meta.DateAcquired.Format(time.DateOnly)
	}
	if meta.CloudCover != nil {
		properties["cloudCover"] = *meta.CloudCover
	}
	if meta.SunAzimuth != nil {
		properties["sunAzimuth"] = *meta.SunAzimuth
	}
	if meta.SunElevation != nil {
		properties["sunElevation"] = *meta.SunElevation
	}

	f := geojson.NewFeature(geojson.NewPolygon([][][]float64{ring}), sceneID, properties)
	f.Bbox = f.ForceBbox()
	return f, nil
}

// WriteFootprint writes the feature as a GeoJSON document
func WriteFootprint(path string, f *geojson.Feature) error {
	p, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling footprint: %w", err)
	}
	if err = os.WriteFile(path, p, 0o644); err != nil {
		return fmt.Errorf("writing footprint: %w", err)
	}
	return nil
}
