package export

import (
	"strconv"
	"strings"

	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
)

// CSVHeader - заголовок выгрузки
var CSVHeader = []string{"id", "type", "severity", "status", "lon", "lat", "createdAt"}

// CSV строит выгрузку: строки через \n без завершающего перевода строки.
// Поле берется в кавычки, только если содержит запятую, кавычку или \n.
func CSV(items []*models.Incident) string {
	var b strings.Builder
	writeRow(&b, CSVHeader)
	for _, inc := range items {
		b.WriteByte('\n')
		writeRow(&b, []string{
			inc.ID,
			inc.Type,
			string(inc.Severity),
			string(inc.Status),
			formatCoord(inc.Longitude),
			formatCoord(inc.Latitude),
			query.FormatTime(inc.CreatedAt),
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(f))
	}
}

func escapeField(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// formatCoord - кратчайшая десятичная запись без экспоненты
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
