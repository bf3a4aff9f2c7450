package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
)

const defaultCacheTTL = 5 * time.Minute

// PostgresRepository - постоянное хранилище инцидентов. Пул может быть nil,
// тогда хранилище сообщает статус not-configured.
type PostgresRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewPostgresRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) *PostgresRepository {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &PostgresRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

// Status сообщает, инициализировано ли хранилище
func (r *PostgresRepository) Status() models.BackendStatus {
	if r == nil || r.db == nil {
		return models.BackendNotConfigured
	}
	return models.BackendReady
}

// Ping проверяет доступность базы
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if r.Status() != models.BackendReady {
		return errors.New("durable store is not configured")
	}
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	return nil
}

// List возвращает инциденты по фильтру, всегда сначала новые, не более f.Limit
func (r *PostgresRepository) List(ctx context.Context, f query.Filter) ([]*models.Incident, error) {
	sql, args := query.ListSQL(f)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0, f.Limit)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// Stats выполняет три независимых подсчета с общим условием фильтра
func (r *PostgresRepository) Stats(ctx context.Context, f query.Filter) (*models.Stats, error) {
	byStatus, err := r.groupCount(ctx, "status", f)
	if err != nil {
		return nil, err
	}
	bySeverity, err := r.groupCount(ctx, "severity", f)
	if err != nil {
		return nil, err
	}

	sql, args := query.CountSQL(f)
	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count incidents: %w", err)
	}

	return &models.Stats{Total: total, ByStatus: byStatus, BySeverity: bySeverity}, nil
}

func (r *PostgresRepository) groupCount(ctx context.Context, column string, f query.Filter) (map[string]int64, error) {
	sql, args := query.GroupCountSQL(column, f)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count incidents by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error %s count iteration: %w", column, err)
	}
	return counts, nil
}

// GetByID возвращает инцидент по id. Id не в формате UUID дает ErrForeignID
// без обращения к базе.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", models.ErrForeignID, id)
	}

	sql := "SELECT " + query.IncidentColumns + " FROM incidents WHERE id = $1"
	incident, err := scanIncident(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Create сохраняет инцидент; id назначает база
func (r *PostgresRepository) Create(ctx context.Context, incident *models.Incident) error {
	const sql = `
		INSERT INTO incidents (type, severity, status, description, lon, lat, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text;
	`
	err := r.db.QueryRow(ctx, sql,
		incident.Type,
		incident.Severity,
		incident.Status,
		incident.Description,
		incident.Longitude,
		incident.Latitude,
		incident.CreatedAt,
	).Scan(&incident.ID)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// UpdateStatus меняет статус без проверки перехода: допускается любое значение перечисления
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Incident, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", models.ErrForeignID, id)
	}

	sql := "UPDATE incidents SET status = $1 WHERE id = $2 RETURNING " + query.IncidentColumns
	incident, err := scanIncident(r.db.QueryRow(ctx, sql, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update incident status: %w", err)
	}
	return incident, nil
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Type,
		&incident.Severity,
		&incident.Status,
		&incident.Description,
		&incident.Longitude,
		&incident.Latitude,
		&incident.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	incident.CreatedAt = incident.CreatedAt.UTC()
	return incident, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis. Промах дает (nil, nil).
func (r *PostgresRepository) GetIncidentFromCache(ctx context.Context, id string) (*models.Incident, error) {
	if r.redisClient == nil {
		return nil, nil
	}
	val, err := r.redisClient.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *PostgresRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	if r.redisClient == nil {
		return nil
	}
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, cacheKey(incident.ID), val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *PostgresRepository) InvalidateIncidentCache(ctx context.Context, id string) error {
	if r.redisClient == nil {
		return nil
	}
	if err := r.redisClient.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("incident:%s", id)
}
