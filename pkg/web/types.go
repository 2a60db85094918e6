package web

import (
	"time"

	"github.com/n8nhub/n8nhub/pkg/models"
)

// InstanceResponse is the outward shape of an instance. The API key never
// leaves the process.
type InstanceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func redactInstance(instance models.Instance) InstanceResponse {
	return InstanceResponse{
		ID:        instance.ID,
		Name:      instance.Name,
		BaseURL:   instance.BaseURL,
		Color:     instance.Color,
		CreatedAt: instance.CreatedAt,
	}
}

func redactInstances(instances []models.Instance) []InstanceResponse {
	out := make([]InstanceResponse, 0, len(instances))
	for _, instance := range instances {
		out = append(out, redactInstance(instance))
	}

	return out
}
