package query

import (
	"fmt"
	"strings"
)

// IncidentColumns - порядок колонок, в котором репозиторий сканирует строки
const IncidentColumns = "id::text, type, severity, status, description, lon, lat, created_at"

// builder собирает параметризованный WHERE. Значения никогда не подставляются в текст запроса.
type builder struct {
	conds []string
	args  []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// Where переводит фильтр в условие WHERE с теми же предикатами, что и Apply:
// членство по status/severity, created_at < before, created_at >= after,
// lon/lat BETWEEN (границы включены). Limit и Sort не участвуют.
func Where(f Filter) (string, []any) {
	b := &builder{}

	if len(f.Statuses) > 0 {
		b.conds = append(b.conds, "status = ANY("+b.arg(f.Statuses)+")")
	}
	if len(f.Severities) > 0 {
		b.conds = append(b.conds, "severity = ANY("+b.arg(f.Severities)+")")
	}
	if f.CreatedBefore != nil {
		b.conds = append(b.conds, "created_at < "+b.arg(*f.CreatedBefore))
	}
	if f.CreatedAfter != nil {
		b.conds = append(b.conds, "created_at >= "+b.arg(*f.CreatedAfter))
	}
	if f.BBox != nil {
		b.conds = append(b.conds, fmt.Sprintf("lon BETWEEN %s AND %s AND lat BETWEEN %s AND %s",
			b.arg(f.BBox.MinLon), b.arg(f.BBox.MaxLon), b.arg(f.BBox.MinLat), b.arg(f.BBox.MaxLat)))
	}

	if len(b.conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(b.conds, " AND "), b.args
}

// ListSQL - выборка "сначала новые" с лимитом на стороне сервера
func ListSQL(f Filter) (string, []any) {
	where, args := Where(f)
	args = append(args, f.Limit)
	sql := fmt.Sprintf("SELECT %s FROM incidents%s ORDER BY created_at DESC LIMIT $%d",
		IncidentColumns, where, len(args))
	return sql, args
}

// GroupCountSQL - количество записей по значениям колонки status или severity
func GroupCountSQL(column string, f Filter) (string, []any) {
	where, args := Where(f)
	return fmt.Sprintf("SELECT %s, COUNT(*) FROM incidents%s GROUP BY %s", column, where, column), args
}

// CountSQL - общее количество записей под фильтром
func CountSQL(f Filter) (string, []any) {
	where, args := Where(f)
	return "SELECT COUNT(*) FROM incidents" + where, args
}
