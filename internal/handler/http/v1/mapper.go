package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shenikar/incident_dashboard/internal/export"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
)

// DTOToIncidentModel преобразует DTO создания в доменную модель
func DTOToIncidentModel(dto CreateIncidentRequest) *models.Incident {
	return &models.Incident{
		Type:        dto.Type,
		Severity:    models.Severity(dto.Severity),
		Description: dto.Description,
		Latitude:    *dto.Location.Lat,
		Longitude:   *dto.Location.Lon,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	item := export.ToItem(model)
	return &IncidentResponse{
		ID:          item.ID,
		Type:        item.Type,
		Severity:    item.Severity,
		Status:      item.Status,
		Description: model.Description,
		Coords:      item.Coords,
		CreatedAt:   item.CreatedAt,
	}
}

// ModelToCreateResponse - краткий ответ на создание
func ModelToCreateResponse(model *models.Incident) *CreateIncidentResponse {
	return &CreateIncidentResponse{
		ID:        model.ID,
		Status:    model.Status,
		CreatedAt: query.FormatTime(model.CreatedAt),
	}
}

// paramsFromQuery собирает сырые параметры фильтра; status и severity повторяемые
func paramsFromQuery(c *gin.Context) query.Params {
	return query.Params{
		Statuses:      c.QueryArray("status"),
		Severities:    c.QueryArray("severity"),
		CreatedBefore: c.Query("created_before"),
		CreatedAfter:  c.Query("created_after"),
		BBox:          c.Query("bbox"),
		Limit:         c.Query("limit"),
		Sort:          c.Query("sort"),
	}
}
