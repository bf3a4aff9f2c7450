package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
)

const (
	// FallbackIDPrefix отличает id резервного хранилища от UUID постоянного
	FallbackIDPrefix = "d-"

	maxBulkSeed     = 50
	minBulkSeed     = 1
	bulkSeedMaxAge  = 6 * time.Hour
	maxIDGeneration = 100
)

var (
	demoTypes    = []string{"disturbance", "accident", "theft", "sos", "hazard", "assault", "lost", "vandalism"}
	demoStatuses = []models.Status{models.StatusOpen, models.StatusTriaged, models.StatusClosed}
)

// MemoryStore - резервное хранилище на время жизни процесса. Новые записи
// добавляются в начало. Чтение работает с копией среза.
type MemoryStore struct {
	mu    sync.RWMutex
	items []*models.Incident
	ids   map[string]struct{}
	now   func() time.Time
}

// NewMemoryStore создает хранилище с переданными записями
func NewMemoryStore(items []*models.Incident) *MemoryStore {
	s := &MemoryStore{
		items: make([]*models.Incident, 0, len(items)),
		ids:   make(map[string]struct{}, len(items)),
		now:   time.Now,
	}
	for _, inc := range items {
		incCopy := *inc
		s.items = append(s.items, &incCopy)
		s.ids[inc.ID] = struct{}{}
	}
	return s
}

func (s *MemoryStore) snapshot() []*models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Incident, len(s.items))
	for i, inc := range s.items {
		incCopy := *inc
		out[i] = &incCopy
	}
	return out
}

// Len возвращает количество записей
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// List применяет фильтр линейным проходом: сначала новые, не более f.Limit
func (s *MemoryStore) List(_ context.Context, f query.Filter) ([]*models.Incident, error) {
	return query.Apply(s.snapshot(), f), nil
}

// Stats считает все три агрегата за один проход по отфильтрованной выборке
func (s *MemoryStore) Stats(_ context.Context, f query.Filter) (*models.Stats, error) {
	items := query.Apply(s.snapshot(), f.WithLimit(query.StatsScanCap))

	stats := &models.Stats{
		Total:      int64(len(items)),
		ByStatus:   make(map[string]int64),
		BySeverity: make(map[string]int64),
	}
	for _, inc := range items {
		stats.ByStatus[string(inc.Status)]++
		stats.BySeverity[string(inc.Severity)]++
	}
	return stats, nil
}

// GetByID ищет запись по id
func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx == -1 {
		return nil, models.ErrNotFound
	}
	incCopy := *s.items[idx]
	return &incCopy, nil
}

// Create добавляет запись в начало и назначает id вида d-NNNNNN
func (s *MemoryStore) Create(_ context.Context, incident *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.newID()
	if err != nil {
		return err
	}
	incident.ID = id
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}

	incCopy := *incident
	s.items = slices.Insert(s.items, 0, &incCopy)
	s.ids[id] = struct{}{}
	return nil
}

// UpdateStatus меняет статус; допускается любое значение перечисления из любого состояния
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status models.Status) (*models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx == -1 {
		return nil, models.ErrNotFound
	}
	s.items[idx].Status = status
	incCopy := *s.items[idx]
	return &incCopy, nil
}

// BulkSeed добавляет от 1 до 50 случайных инцидентов за последние 6 часов.
// Возвращает фактическое количество.
func (s *MemoryStore) BulkSeed(_ context.Context, count int) (int, error) {
	count = max(minBulkSeed, min(maxBulkSeed, count))

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Millisecond)
	for i := 0; i < count; i++ {
		id, err := s.newID()
		if err != nil {
			return i, err
		}
		incident := &models.Incident{
			ID:        id,
			Type:      demoTypes[rand.IntN(len(demoTypes))],
			Severity:  models.Severities[rand.IntN(len(models.Severities))],
			Status:    demoStatuses[rand.IntN(len(demoStatuses))],
			Latitude:  max(-85, min(85, rand.Float64()*170-85)),
			Longitude: rand.Float64()*360 - 180,
			CreatedAt: now.Add(-time.Duration(rand.Int64N(int64(bulkSeedMaxAge))).Truncate(time.Millisecond)),
		}
		s.items = slices.Insert(s.items, 0, incident)
		s.ids[id] = struct{}{}
	}
	return count, nil
}

// indexOf вызывается под блокировкой
func (s *MemoryStore) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(inc *models.Incident) bool { return inc.ID == id })
}

// newID вызывается под блокировкой на запись
func (s *MemoryStore) newID() (string, error) {
	for i := 0; i < maxIDGeneration; i++ {
		id := fmt.Sprintf("%s%06d", FallbackIDPrefix, rand.IntN(1_000_000))
		if _, exists := s.ids[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique fallback id")
}
