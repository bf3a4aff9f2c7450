package query

import (
	"slices"
	"time"

	"github.com/shenikar/incident_dashboard/internal/models"
)

// CursorLayout - формат created_at в курсоре и выгрузках (ISO-8601, миллисекунды, UTC)
const CursorLayout = "2006-01-02T15:04:05.000Z"

// FormatTime форматирует метку времени для курсора и выгрузок
func FormatTime(t time.Time) string {
	return t.UTC().Format(CursorLayout)
}

// Apply - путь сканирования: копия коллекции, последовательное сужение по
// status, severity, createdBefore, createdAfter, bbox, сортировка по created_at
// по убыванию и первые Limit записей. Направление Sort здесь не применяется.
func Apply(items []*models.Incident, f Filter) []*models.Incident {
	out := slices.Clone(items)

	if len(f.Statuses) > 0 {
		out = narrow(out, func(inc *models.Incident) bool {
			return slices.Contains(f.Statuses, string(inc.Status))
		})
	}
	if len(f.Severities) > 0 {
		out = narrow(out, func(inc *models.Incident) bool {
			return slices.Contains(f.Severities, string(inc.Severity))
		})
	}
	if f.CreatedBefore != nil {
		before := *f.CreatedBefore
		out = narrow(out, func(inc *models.Incident) bool { return inc.CreatedAt.Before(before) })
	}
	if f.CreatedAfter != nil {
		after := *f.CreatedAfter
		out = narrow(out, func(inc *models.Incident) bool { return !inc.CreatedAt.Before(after) })
	}
	if f.BBox != nil {
		box := *f.BBox
		out = narrow(out, func(inc *models.Incident) bool { return box.Contains(inc.Longitude, inc.Latitude) })
	}

	SortNewestFirst(out)

	if f.Limit >= 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func narrow(items []*models.Incident, keep func(*models.Incident) bool) []*models.Incident {
	out := items[:0]
	for _, inc := range items {
		if keep(inc) {
			out = append(out, inc)
		}
	}
	return out
}

// SortNewestFirst - стабильная сортировка по created_at по убыванию
func SortNewestFirst(items []*models.Incident) {
	slices.SortStableFunc(items, func(a, b *models.Incident) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// NextCursor возвращает created_at последней записи выборки "сначала новые"
func NextCursor(newestFirst []*models.Incident) *time.Time {
	if len(newestFirst) == 0 {
		return nil
	}
	t := newestFirst[len(newestFirst)-1].CreatedAt
	return &t
}

// Paginate строит страницу из ограниченной выборки "сначала новые". Курсор
// берется до разворота, для asc выборка просто переворачивается, поэтому
// asc и desc с одним лимитом возвращают одно и то же подмножество.
func Paginate(newestFirst []*models.Incident, dir SortDirection) models.Page {
	page := models.Page{
		Items:      newestFirst,
		NextCursor: NextCursor(newestFirst),
	}
	if dir == SortAsc {
		page.Items = slices.Clone(newestFirst)
		slices.Reverse(page.Items)
	}
	return page
}
