package models

import (
	"errors"
	"time"
)

// BackendStatus - состояние хранилища, проверяемое заново на каждый запрос
type BackendStatus string

const (
	BackendReady         BackendStatus = "ready"
	BackendNotConfigured BackendStatus = "not-configured"
	BackendError         BackendStatus = "error"
)

var (
	ErrNotFound       = errors.New("incident not found")
	ErrMissingFields  = errors.New("missing required fields")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrNoFields       = errors.New("no updatable fields provided")
	ErrNotImplemented = errors.New("bulk demo only in demo mode")

	// ErrForeignID - id не может принадлежать постоянному хранилищу (не UUID)
	ErrForeignID = errors.New("id is not a durable store id")
)

// Page - страница результатов в порядке выдачи и курсор для следующей страницы.
// NextCursor равен created_at последней записи выборки "сначала новые", либо nil.
type Page struct {
	Items      []*Incident
	NextCursor *time.Time
}

// Stats - агрегаты по фильтру. Ключи с нулевым счетчиком могут отсутствовать.
type Stats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"byStatus"`
	BySeverity map[string]int64 `json:"bySeverity"`
}

// Served - метка о том, каким путем был обслужен запрос
type Served struct {
	Fallback bool
	Backend  BackendStatus
}

type PageResult struct {
	Page
	Served
}

type StatsResult struct {
	Stats
	Served
}

type IncidentResult struct {
	Incident *Incident
	Served
}

// Health - состояние хранилищ для проверки работоспособности
type Health struct {
	Durable         BackendStatus `json:"durable"`
	FallbackRecords int           `json:"fallbackRecords"`
}
