package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
)

// GeoJSON строит FeatureCollection из точек в порядке выборки
func GeoJSON(items []*models.Incident) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, inc := range items {
		f := geojson.NewFeature(orb.Point{inc.Longitude, inc.Latitude})
		f.ID = inc.ID
		f.Properties["type"] = inc.Type
		f.Properties["severity"] = string(inc.Severity)
		f.Properties["status"] = string(inc.Status)
		f.Properties["createdAt"] = query.FormatTime(inc.CreatedAt)
		fc.Append(f)
	}
	return fc
}
