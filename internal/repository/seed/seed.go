// Package seed содержит демонстрационный набор инцидентов для резервного хранилища
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/shenikar/incident_dashboard/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoYAML []byte

type fixture struct {
	Incidents []record `yaml:"incidents"`
}

type record struct {
	ID       string        `yaml:"id"`
	Type     string        `yaml:"type"`
	Severity string        `yaml:"severity"`
	Status   string        `yaml:"status"`
	Lat      float64       `yaml:"lat"`
	Lon      float64       `yaml:"lon"`
	Age      time.Duration `yaml:"age"`
}

// Demo возвращает демонстрационные инциденты с created_at относительно now
func Demo(now time.Time) ([]*models.Incident, error) {
	return Parse(demoYAML, now)
}

// Parse разбирает YAML-фикстуру инцидентов
func Parse(data []byte, now time.Time) ([]*models.Incident, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixture: %w", err)
	}

	now = now.UTC().Truncate(time.Millisecond)
	incidents := make([]*models.Incident, 0, len(f.Incidents))
	for _, r := range f.Incidents {
		if r.ID == "" {
			return nil, fmt.Errorf("seed fixture: incident without id")
		}
		incidents = append(incidents, &models.Incident{
			ID:        r.ID,
			Type:      r.Type,
			Severity:  models.Severity(r.Severity),
			Status:    models.Status(r.Status),
			Latitude:  r.Lat,
			Longitude: r.Lon,
			CreatedAt: now.Add(-r.Age),
		})
	}
	return incidents, nil
}
