package v1

import (
	"github.com/shenikar/incident_dashboard/internal/models"
)

// LocationRequest - координаты инцидента. Диапазоны при записи не проверяются.
// @Description Координаты инцидента
type LocationRequest struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Type        string           `json:"type" validate:"required"`
	Severity    string           `json:"severity" validate:"required,oneof=low medium high critical"`
	Description string           `json:"description,omitempty" validate:"max=2000"`
	Location    *LocationRequest `json:"location" validate:"required"`
}

// UpdateIncidentRequest DTO для обновления инцидента; поддерживается только статус
// @Description DTO для обновления инцидента
type UpdateIncidentRequest struct {
	Status *string `json:"status,omitempty"`
}

// BulkDemoRequest DTO для заполнения резервного хранилища случайными инцидентами
// @Description DTO для заполнения резервного хранилища
type BulkDemoRequest struct {
	Count *int `json:"count,omitempty"`
}

// CreateIncidentResponse DTO для ответа на создание инцидента
// @Description DTO для ответа на создание инцидента
type CreateIncidentResponse struct {
	ID        string        `json:"id"`
	Status    models.Status `json:"status"`
	CreatedAt string        `json:"createdAt"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	Description string     `json:"description,omitempty"`
	Coords      [2]float64 `json:"coords"`
	CreatedAt   string     `json:"createdAt"`
}

// BulkDemoResponse DTO для ответа на заполнение резервного хранилища
type BulkDemoResponse struct {
	Added int `json:"added"`
}

// HealthResponse DTO для ответа health-check
type HealthResponse struct {
	Status          string               `json:"status"`
	Durable         models.BackendStatus `json:"durable"`
	FallbackRecords int                  `json:"fallbackRecords"`
}
