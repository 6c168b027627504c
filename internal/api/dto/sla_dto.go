package dto

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// CreateSLAConfigRequest payload.
type CreateSLAConfigRequest struct {
	ServiceArea   string  `json:"service_area"`
	TaskType      *string `json:"task_type"`
	TargetMinutes int     `json:"target_minutes"`
	Active        *bool   `json:"active"`
}

// SLAConfigResponse response.
type SLAConfigResponse struct {
	ID            string    `json:"id"`
	ServiceArea   string    `json:"service_area"`
	TaskType      *string   `json:"task_type"`
	TargetMinutes int       `json:"target_minutes"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// SLADefinitionResponse response.
type SLADefinitionResponse struct {
	ID            string  `json:"id"`
	Slug          string  `json:"slug"`
	Description   string  `json:"description"`
	ObjectiveType string  `json:"objective_type"`
	TargetNumeric float64 `json:"target_numeric"`
	WindowMinutes int     `json:"window_minutes"`
	Operator      string  `json:"threshold_operator"`
	Enabled       bool    `json:"enabled"`
}

// SLABreachResponse response.
type SLABreachResponse struct {
	ID              string     `json:"id"`
	InstanceID      string     `json:"sla_instance_id"`
	DefinitionID    string     `json:"sla_definition_id"`
	BreachValue     float64    `json:"breach_value"`
	TargetValue     float64    `json:"target_value"`
	Severity        string     `json:"severity"`
	Status          string     `json:"status"`
	EscalationLevel int        `json:"escalation_level"`
	OpenedAt        time.Time  `json:"opened_at"`
	ResolvedAt      *time.Time `json:"resolved_at"`
}

// FromSLAConfig maps a domain config.
func FromSLAConfig(config *domain.SLAConfig) SLAConfigResponse {
	var taskType *string
	if config.TaskType != nil {
		value := string(*config.TaskType)
		taskType = &value
	}
	return SLAConfigResponse{
		ID:            config.ID,
		ServiceArea:   config.ServiceArea,
		TaskType:      taskType,
		TargetMinutes: config.TargetMinutes,
		Active:        config.Active,
		CreatedAt:     config.CreatedAt,
	}
}

// FromSLADefinition maps a catalog definition.
func FromSLADefinition(def *domain.SLADefinition) SLADefinitionResponse {
	return SLADefinitionResponse{
		ID:            def.ID,
		Slug:          def.Slug,
		Description:   def.Description,
		ObjectiveType: string(def.ObjectiveType),
		TargetNumeric: def.TargetNumeric,
		WindowMinutes: def.WindowMinutes,
		Operator:      string(def.Operator),
		Enabled:       def.Enabled,
	}
}

// FromSLABreach maps a breach record.
func FromSLABreach(breach *domain.SLABreach) SLABreachResponse {
	return SLABreachResponse{
		ID:              breach.ID,
		InstanceID:      breach.InstanceID,
		DefinitionID:    breach.DefinitionID,
		BreachValue:     breach.BreachValue,
		TargetValue:     breach.TargetValue,
		Severity:        string(breach.Severity),
		Status:          string(breach.Status),
		EscalationLevel: breach.EscalationLevel,
		OpenedAt:        breach.OpenedAt,
		ResolvedAt:      breach.ResolvedAt,
	}
}
