package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWhere_Empty(t *testing.T) {
	where, args := Where(ParseFilter(Params{}, ListLimits))

	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestListSQL_AllPredicates(t *testing.T) {
	f := ParseFilter(Params{
		Statuses:      []string{"open", "triaged"},
		Severities:    []string{"high"},
		CreatedBefore: "2024-05-01T12:00:00.000Z",
		CreatedAfter:  "2024-05-01T00:00:00.000Z",
		BBox:          "-10,-5,10,5",
		Limit:         "25",
		Sort:          "asc",
	}, ListLimits)

	sql, args := ListSQL(f)

	assert.Equal(t,
		"SELECT "+IncidentColumns+" FROM incidents WHERE status = ANY($1) AND severity = ANY($2)"+
			" AND created_at < $3 AND created_at >= $4"+
			" AND lon BETWEEN $5 AND $6 AND lat BETWEEN $7 AND $8"+
			" ORDER BY created_at DESC LIMIT $9",
		sql)
	assert.Equal(t, []any{
		[]string{"open", "triaged"},
		[]string{"high"},
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		-10.0, 10.0, -5.0, 5.0,
		25,
	}, args)
}

func TestListSQL_IgnoresSortDirection(t *testing.T) {
	asc, _ := ListSQL(ParseFilter(Params{Sort: "asc"}, ListLimits))
	desc, _ := ListSQL(ParseFilter(Params{Sort: "desc"}, ListLimits))

	assert.Equal(t, desc, asc)
	assert.Contains(t, asc, "ORDER BY created_at DESC")
}

func TestStatsSQL_ShareWhereClause(t *testing.T) {
	f := ParseFilter(Params{Severities: []string{"low"}, Limit: "3"}, ListLimits)

	bySeverity, args := GroupCountSQL("severity", f)
	assert.Equal(t, "SELECT severity, COUNT(*) FROM incidents WHERE severity = ANY($1) GROUP BY severity", bySeverity)
	assert.Equal(t, []any{[]string{"low"}}, args)

	total, args := CountSQL(f)
	assert.Equal(t, "SELECT COUNT(*) FROM incidents WHERE severity = ANY($1)", total)
	assert.Len(t, args, 1, "лимит не участвует в подсчете")
}
