// Package export преобразует выборку инцидентов в формы ответа:
// JSON-страницу, CSV и GeoJSON. Порядок и состав выборки не меняются.
package export

import (
	"fmt"
	"strings"

	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
)

// Format - формат выгрузки
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatGeoJSON Format = "geojson"
)

// ParseFormat разбирает формат выгрузки; пустое значение означает CSV
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatGeoJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Item - инцидент в форме списка: координаты [lon, lat], время с миллисекундами в UTC
type Item struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Severity  string     `json:"severity"`
	Status    string     `json:"status"`
	Coords    [2]float64 `json:"coords"`
	CreatedAt string     `json:"createdAt"`
}

// PageBody - тело ответа со страницей инцидентов
type PageBody struct {
	Items      []Item  `json:"items"`
	NextCursor *string `json:"nextCursor"`
}

// ToItem переводит инцидент в форму списка
func ToItem(inc *models.Incident) Item {
	return Item{
		ID:        inc.ID,
		Type:      inc.Type,
		Severity:  string(inc.Severity),
		Status:    string(inc.Status),
		Coords:    [2]float64{inc.Longitude, inc.Latitude},
		CreatedAt: query.FormatTime(inc.CreatedAt),
	}
}

// JSONPage строит тело страницы. Пустая выборка дает пустой массив и nextCursor: null.
func JSONPage(page models.Page) PageBody {
	body := PageBody{Items: make([]Item, 0, len(page.Items))}
	for _, inc := range page.Items {
		body.Items = append(body.Items, ToItem(inc))
	}
	if page.NextCursor != nil {
		cursor := query.FormatTime(*page.NextCursor)
		body.NextCursor = &cursor
	}
	return body
}
