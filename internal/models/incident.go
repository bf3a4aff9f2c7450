package models

import (
	"slices"
	"time"
)

// Severity - уровень серьезности инцидента
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status - состояние обработки инцидента
type Status string

const (
	StatusOpen    Status = "open"
	StatusTriaged Status = "triaged"
	StatusClosed  Status = "closed"
)

// Severities перечисляет допустимые уровни серьезности
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Statuses перечисляет допустимые статусы
var Statuses = []Status{StatusOpen, StatusTriaged, StatusClosed}

// IsValid сообщает, входит ли статус в перечисление
func (s Status) IsValid() bool {
	return slices.Contains(Statuses, s)
}

func (s Severity) IsValid() bool {
	return slices.Contains(Severities, s)
}

// Incident - запись об инциденте. ID и CreatedAt не меняются после создания,
// изменяется только Status.
type Incident struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    Severity  `json:"severity"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Longitude   float64   `json:"longitude"`
	Latitude    float64   `json:"latitude"`
	CreatedAt   time.Time `json:"created_at"`
}
