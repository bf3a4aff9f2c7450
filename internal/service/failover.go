package service

import (
	"context"
	"errors"
	"time"

	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	opList   = "list"
	opExport = "export"
	opStats  = "stats"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update_status"
)

// MetricsRecorder учитывает, каким путем обслужен запрос
type MetricsRecorder interface {
	ObserveQuery(operation string, served models.Served, elapsed time.Duration)
}

// withFailover выполняет операцию на постоянном хранилище, если оно готово,
// и на резервном при любой ошибке выполнения. ErrNotFound от постоянного
// хранилища считается ответом и не переключает. Состояние между запросами не хранится.
func withFailover[T any](
	ctx context.Context,
	s *incidentService,
	log *logrus.Entry,
	op string,
	durable func(context.Context) (T, error),
	fallback func(context.Context) (T, error),
) (T, models.Served, error) {
	start := time.Now()

	backend := s.durable.Status()
	if backend == models.BackendReady {
		res, err := durableAttempt(ctx, s.queryTimeout(), durable)
		if err == nil || errors.Is(err, models.ErrNotFound) {
			served := models.Served{Backend: models.BackendReady}
			s.observe(op, served, start)
			return res, served, err
		}

		entry := log.WithError(err).WithField("operation", op)
		if errors.Is(err, models.ErrForeignID) {
			entry.Debug("Id belongs to fallback store")
		} else {
			entry.Warn("Durable store failed, serving from fallback")
		}
		backend = models.BackendError
	}

	served := models.Served{Fallback: true, Backend: backend}
	res, err := fallback(ctx)
	s.observe(op, served, start)
	return res, served, err
}

// durableAttempt ограничивает одну попытку обращения к базе по времени
func durableAttempt[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return call(ctx)
}

func (s *incidentService) queryTimeout() time.Duration {
	if s.cfg == nil {
		return 0
	}
	return s.cfg.DBQueryTimeout
}

func (s *incidentService) observe(op string, served models.Served, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveQuery(op, served, time.Since(start))
}
