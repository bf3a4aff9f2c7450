// Package query содержит нормализованный фильтр инцидентов и оба способа его применения:
// SQL для постоянного хранилища и линейный проход для резервного хранилища в памяти.
package query

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// SortDirection - направление сортировки выдачи по created_at
type SortDirection string

const (
	SortDesc SortDirection = "desc"
	SortAsc  SortDirection = "asc"
)

// StatsScanCap - лимит прохода по резервному хранилищу при подсчете статистики
const StatsScanCap = 1000

// LimitRange - допустимый диапазон limit для конкретной операции
type LimitRange struct {
	Min     int
	Max     int
	Default int
}

var (
	ListLimits   = LimitRange{Min: 1, Max: 200, Default: 50}
	ExportLimits = LimitRange{Min: 1, Max: 1000, Default: 500}
)

// Params - сырые параметры запроса в том виде, в каком они пришли от клиента
type Params struct {
	Statuses      []string
	Severities    []string
	CreatedBefore string
	CreatedAfter  string
	BBox          string
	Limit         string
	Sort          string
}

// BoundingBox - прямоугольник minLon,minLat,maxLon,maxLat, границы включены
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Bound возвращает прямоугольник в виде orb.Bound
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Contains проверяет попадание точки в прямоугольник включая границы
func (b BoundingBox) Contains(lon, lat float64) bool {
	return b.Bound().Contains(orb.Point{lon, lat})
}

// Filter - проверенный фильтр, не зависящий от хранилища.
// Пустые Statuses/Severities означают отсутствие ограничения.
type Filter struct {
	Statuses      []string
	Severities    []string
	CreatedBefore *time.Time
	CreatedAfter  *time.Time
	BBox          *BoundingBox
	Limit         int
	Sort          SortDirection
}

// ParseFilter нормализует параметры. Ошибок не бывает: некорректное значение
// снимает соответствующее ограничение, а limit всегда приводится к диапазону.
func ParseFilter(p Params, limits LimitRange) Filter {
	return Filter{
		Statuses:      normalizeSet(p.Statuses),
		Severities:    normalizeSet(p.Severities),
		CreatedBefore: ParseTime(p.CreatedBefore),
		CreatedAfter:  ParseTime(p.CreatedAfter),
		BBox:          ParseBBox(p.BBox),
		Limit:         ParseLimit(p.Limit, limits),
		Sort:          ParseSort(p.Sort),
	}
}

// WithLimit возвращает копию фильтра с другим лимитом
func (f Filter) WithLimit(limit int) Filter {
	f.Limit = limit
	return f
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime разбирает ISO-8601 метку. Метки без зоны считаются UTC.
// Нераспознанное значение дает nil.
func ParseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ParseBBox принимает ровно четыре конечных числа с min <= max по обеим осям
func ParseBBox(raw string) *BoundingBox {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil
	}
	var nums [4]float64
	for i, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		nums[i] = n
	}
	box := BoundingBox{MinLon: nums[0], MinLat: nums[1], MaxLon: nums[2], MaxLat: nums[3]}
	if box.MinLon > box.MaxLon || box.MinLat > box.MaxLat {
		return nil
	}
	return &box
}

// ParseLimit приводит limit к диапазону; нечисловое или пустое значение заменяется на Default
func ParseLimit(raw string, limits LimitRange) int {
	n := limits.Default
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			n = v
		} else if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) {
			// обрезаем до конвертации, чтобы не переполнить int
			f = math.Max(float64(limits.Min), math.Min(float64(limits.Max), math.Trunc(f)))
			n = int(f)
		}
	}
	return ClampLimit(n, limits)
}

// ClampLimit приводит n к [Min, Max]
func ClampLimit(n int, limits LimitRange) int {
	if n < limits.Min {
		return limits.Min
	}
	if n > limits.Max {
		return limits.Max
	}
	return n
}

// ParseSort возвращает asc только для "asc", иначе desc
func ParseSort(raw string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}
