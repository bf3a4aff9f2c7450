package service

//go:generate mockgen -source=incident.go -destination=mocks/mock_incident.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shenikar/incident_dashboard/internal/config"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
	"github.com/shenikar/incident_dashboard/internal/webhook"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет общий контракт обоих хранилищ инцидентов
type IncidentRepository interface {
	List(ctx context.Context, f query.Filter) ([]*models.Incident, error)
	Stats(ctx context.Context, f query.Filter) (*models.Stats, error)
	GetByID(ctx context.Context, id string) (*models.Incident, error)
	Create(ctx context.Context, incident *models.Incident) error
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Incident, error)
}

// DurableRepository - постоянное хранилище с кешем отдельных инцидентов
type DurableRepository interface {
	IncidentRepository
	Status() models.BackendStatus
	Ping(ctx context.Context) error
	GetIncidentFromCache(ctx context.Context, id string) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id string) error
}

// FallbackStore - резервное хранилище в памяти процесса
type FallbackStore interface {
	IncidentRepository
	BulkSeed(ctx context.Context, count int) (int, error)
	Len() int
}

// IncidentService определяет контракт выборки и изменения инцидентов
// с прозрачным переключением на резервное хранилище.
// GetIncident и UpdateStatus при ошибке хранилища возвращают результат без
// инцидента, но с заполненным Served: 404 тоже помечается источником.
type IncidentService interface {
	ListIncidents(ctx context.Context, f query.Filter) (*models.PageResult, error)
	ExportIncidents(ctx context.Context, f query.Filter) (*models.PageResult, error)
	GetStats(ctx context.Context, f query.Filter) (*models.StatsResult, error)
	GetIncident(ctx context.Context, id string) (*models.IncidentResult, error)
	CreateIncident(ctx context.Context, incident *models.Incident) (*models.IncidentResult, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.IncidentResult, error)
	SeedDemo(ctx context.Context, count int) (int, error)
	Health(ctx context.Context) models.Health
}

type incidentService struct {
	durable   DurableRepository
	fallback  FallbackStore
	logger    *logrus.Logger
	cfg       *config.Config
	publisher webhook.WebhookPublisher
	metrics   MetricsRecorder
	now       func() time.Time
}

// NewIncidentService собирает сервис. publisher и metrics могут быть nil.
func NewIncidentService(
	durable DurableRepository,
	fallback FallbackStore,
	logger *logrus.Logger,
	cfg *config.Config,
	publisher webhook.WebhookPublisher,
	metrics MetricsRecorder,
) IncidentService {
	return &incidentService{
		durable:   durable,
		fallback:  fallback,
		logger:    logger,
		cfg:       cfg,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// ListIncidents возвращает страницу инцидентов по фильтру
func (s *incidentService) ListIncidents(ctx context.Context, f query.Filter) (*models.PageResult, error) {
	return s.page(ctx, "ListIncidents", opList, f)
}

// ExportIncidents возвращает выборку для выгрузки; лимит задан фильтром
func (s *incidentService) ExportIncidents(ctx context.Context, f query.Filter) (*models.PageResult, error) {
	return s.page(ctx, "ExportIncidents", opExport, f)
}

func (s *incidentService) page(ctx context.Context, method, op string, f query.Filter) (*models.PageResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  method,
		"limit":   f.Limit,
		"sort":    f.Sort,
	})
	log.Debug("Querying incidents")

	items, served, err := withFailover(ctx, s, log, op,
		func(ctx context.Context) ([]*models.Incident, error) { return s.durable.List(ctx, f) },
		func(ctx context.Context) ([]*models.Incident, error) { return s.fallback.List(ctx, f) },
	)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithFields(logrus.Fields{"count": len(items), "fallback": served.Fallback}).Debug("Incidents listed")
	return &models.PageResult{Page: query.Paginate(items, f.Sort), Served: served}, nil
}

// GetStats возвращает агрегаты по фильтру. Лимит фильтра не учитывается.
func (s *incidentService) GetStats(ctx context.Context, f query.Filter) (*models.StatsResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "GetStats",
	})

	stats, served, err := withFailover(ctx, s, log, opStats,
		func(ctx context.Context) (*models.Stats, error) { return s.durable.Stats(ctx, f) },
		func(ctx context.Context) (*models.Stats, error) { return s.fallback.Stats(ctx, f) },
	)
	if err != nil {
		log.WithError(err).Error("Failed to compute incident stats")
		return nil, fmt.Errorf("service: could not get stats: %w", err)
	}
	return &models.StatsResult{Stats: *stats, Served: served}, nil
}

// GetIncident получает инцидент по ID. Постоянное хранилище читается через кеш.
func (s *incidentService) GetIncident(ctx context.Context, id string) (*models.IncidentResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Debug("Fetching incident by ID")

	incident, served, err := withFailover(ctx, s, log, opGet,
		func(ctx context.Context) (*models.Incident, error) { return s.getCached(ctx, log, id) },
		func(ctx context.Context) (*models.Incident, error) { return s.fallback.GetByID(ctx, id) },
	)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Debug("Incident not found")
		} else {
			log.WithError(err).Error("Failed to get incident")
		}
		return &models.IncidentResult{Served: served}, fmt.Errorf("service: could not get incident: %w", err)
	}
	return &models.IncidentResult{Incident: incident, Served: served}, nil
}

func (s *incidentService) getCached(ctx context.Context, log *logrus.Entry, id string) (*models.Incident, error) {
	cached, err := s.durable.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from cache")
	}
	if cached != nil {
		log.Debug("Incident found in cache")
		return cached, nil
	}

	incident, err := s.durable.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.durable.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to set incident in cache")
	}
	return incident, nil
}

// CreateIncident создает инцидент со статусом open
func (s *incidentService) CreateIncident(ctx context.Context, incident *models.Incident) (*models.IncidentResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"type":    incident.Type,
	})
	log.Info("Attempting to create a new incident")

	incident.Type = strings.TrimSpace(incident.Type)
	if incident.Type == "" || !incident.Severity.IsValid() {
		return nil, fmt.Errorf("service: could not create incident: %w", models.ErrMissingFields)
	}
	incident.ID = ""
	incident.Status = models.StatusOpen
	incident.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	// Каждая попытка пишет свою копию, чтобы id неудачной попытки не протек
	created, served, err := withFailover(ctx, s, log, opCreate,
		func(ctx context.Context) (*models.Incident, error) {
			incCopy := *incident
			return &incCopy, s.durable.Create(ctx, &incCopy)
		},
		func(ctx context.Context) (*models.Incident, error) {
			incCopy := *incident
			return &incCopy, s.fallback.Create(ctx, &incCopy)
		},
	)
	if err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}
	*incident = *created

	log.WithFields(logrus.Fields{"incident_id": created.ID, "fallback": served.Fallback}).Info("Incident created successfully")
	s.publish(ctx, log, webhook.EventIncidentCreated, created, served)
	return &models.IncidentResult{Incident: created, Served: served}, nil
}

// UpdateStatus меняет статус инцидента. Переходы не ограничены.
func (s *incidentService) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.IncidentResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateStatus",
		"incident_id": id,
		"status":      status,
	})
	log.Info("Attempting to update incident status")

	if status == "" {
		return nil, fmt.Errorf("service: could not update incident: %w", models.ErrNoFields)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("service: could not update incident: %w", models.ErrInvalidStatus)
	}

	updated, served, err := withFailover(ctx, s, log, opUpdate,
		func(ctx context.Context) (*models.Incident, error) {
			inc, err := s.durable.UpdateStatus(ctx, id, status)
			if err != nil {
				return nil, err
			}
			if err := s.durable.InvalidateIncidentCache(ctx, id); err != nil {
				log.WithError(err).Warn("Failed to invalidate incident cache")
			}
			return inc, nil
		},
		func(ctx context.Context) (*models.Incident, error) { return s.fallback.UpdateStatus(ctx, id, status) },
	)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.WithError(err).Error("Failed to update incident status")
		}
		return &models.IncidentResult{Served: served}, fmt.Errorf("service: could not update incident: %w", err)
	}

	log.WithField("fallback", served.Fallback).Info("Incident status updated successfully")
	s.publish(ctx, log, webhook.EventStatusChanged, updated, served)
	return &models.IncidentResult{Incident: updated, Served: served}, nil
}

// SeedDemo добавляет случайные инциденты в резервное хранилище.
// Доступно только когда постоянное хранилище не настроено.
func (s *incidentService) SeedDemo(ctx context.Context, count int) (int, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "SeedDemo",
		"count":   count,
	})

	if s.durable.Status() != models.BackendNotConfigured {
		log.Warn("Bulk demo seeding requested while durable store is configured")
		return 0, fmt.Errorf("service: could not seed demo incidents: %w", models.ErrNotImplemented)
	}

	added, err := s.fallback.BulkSeed(ctx, count)
	if err != nil {
		log.WithError(err).Error("Failed to seed demo incidents")
		return added, fmt.Errorf("service: could not seed demo incidents: %w", err)
	}
	log.WithField("added", added).Info("Demo incidents seeded")
	return added, nil
}

// Health сообщает состояние хранилищ. Настроенная база проверяется ping
// с тем же ограничением по времени, что и запросы.
func (s *incidentService) Health(ctx context.Context) models.Health {
	status := s.durable.Status()
	if status == models.BackendReady {
		_, err := durableAttempt(ctx, s.queryTimeout(), func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.durable.Ping(ctx)
		})
		if err != nil {
			s.logger.WithError(err).WithField("service", "incident").Warn("Durable store health check failed")
			status = models.BackendError
		}
	}
	return models.Health{
		Durable:         status,
		FallbackRecords: s.fallback.Len(),
	}
}

func (s *incidentService) publish(ctx context.Context, log *logrus.Entry, kind webhook.EventKind, incident *models.Incident, served models.Served) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, webhook.NewEvent(kind, incident, served.Fallback)); err != nil {
		log.WithError(err).Error("Failed to publish webhook event")
	}
}
