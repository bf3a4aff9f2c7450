package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sebdah/goldie/v2"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []*models.Incident {
	return []*models.Incident{
		{
			ID: "d-001", Type: "theft", Severity: models.SeverityMedium, Status: models.StatusOpen,
			Longitude: 72.8777, Latitude: 19.076,
			CreatedAt: time.Date(2024, 5, 1, 11, 45, 0, 0, time.UTC),
		},
		{
			ID: "d-100", Type: `fire, "large"`, Severity: models.SeverityCritical, Status: models.StatusTriaged,
			Longitude: -122.4194, Latitude: 37.7749,
			CreatedAt: time.Date(2024, 5, 1, 11, 20, 0, 500_000_000, time.UTC),
		},
		{
			ID: "d-101", Type: "multi\nline", Severity: models.SeverityLow, Status: models.StatusClosed,
			Longitude: 0, Latitude: -0.5,
			CreatedAt: time.Date(2024, 4, 30, 23, 59, 59, 999_000_000, time.UTC),
		},
	}
}

func TestCSV_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "incidents_csv", []byte(CSV(fixture())))
}

func TestCSV_RoundTrip(t *testing.T) {
	items := fixture()

	records, err := csv.NewReader(strings.NewReader(CSV(items))).ReadAll()

	require.NoError(t, err)
	require.Len(t, records, len(items)+1)
	assert.Equal(t, CSVHeader, records[0])
	for i, inc := range items {
		row := records[i+1]
		assert.Equal(t, inc.ID, row[0])
		assert.Equal(t, inc.Type, row[1])
		assert.Equal(t, string(inc.Severity), row[2])
		assert.Equal(t, string(inc.Status), row[3])

		createdAt, err := time.Parse(time.RFC3339Nano, row[6])
		require.NoError(t, err)
		assert.True(t, inc.CreatedAt.Equal(createdAt))
	}
}

func TestCSV_Empty(t *testing.T) {
	assert.Equal(t, "id,type,severity,status,lon,lat,createdAt", CSV(nil))
}

func TestEscapeField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"a\nb", "\"a\nb\""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeField(tt.in), tt.in)
	}
}

func TestJSONPage(t *testing.T) {
	items := fixture()
	cursor := items[len(items)-1].CreatedAt

	body := JSONPage(models.Page{Items: items, NextCursor: &cursor})

	require.Len(t, body.Items, 3)
	assert.Equal(t, [2]float64{72.8777, 19.076}, body.Items[0].Coords)
	assert.Equal(t, "2024-05-01T11:20:00.500Z", body.Items[1].CreatedAt)
	require.NotNil(t, body.NextCursor)
	assert.Equal(t, "2024-04-30T23:59:59.999Z", *body.NextCursor)
}

func TestJSONPage_Empty(t *testing.T) {
	raw, err := json.Marshal(JSONPage(models.Page{}))

	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"nextCursor":null}`, string(raw))
}

func TestGeoJSON(t *testing.T) {
	raw, err := json.Marshal(GeoJSON(fixture()))
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	first := fc.Features[0]
	assert.Equal(t, "d-001", first.ID)
	assert.Equal(t, orb.Point{72.8777, 19.076}, first.Geometry)
	assert.Equal(t, "theft", first.Properties.MustString("type"))
	assert.Equal(t, "2024-05-01T11:45:00.000Z", first.Properties.MustString("createdAt"))
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "json": FormatJSON, " geojson ": FormatGeoJSON} {
		got, err := ParseFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xlsx")
	assert.Error(t, err)
}
