package events

import (
	"github.com/lexflow/backend/internal/domain/models"
)

// EventType defines the type of event in the system
type EventType string

const (
	// Document Events
	DocumentCreated       EventType = "document.created"
	DocumentStatusChanged EventType = "document.statusChanged"

	// Workflow Events
	WorkflowCreated     EventType = "workflow.created"
	WorkflowStepUpdated EventType = "workflow.stepUpdated"
	WorkflowStepChanged EventType = "workflow.stepChanged"
)

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// DocumentCreatedPayload carries the full document on document.created
type DocumentCreatedPayload struct {
	Document *models.Document `json:"document"`
}

// DocumentStatusChangedPayload carries a document status transition
type DocumentStatusChangedPayload struct {
	DocumentID string                `json:"document_id"`
	OldStatus  models.DocumentStatus `json:"old_status"`
	NewStatus  models.DocumentStatus `json:"new_status"`
}

// WorkflowCreatedPayload carries the full workflow on workflow.created
type WorkflowCreatedPayload struct {
	Workflow *models.Workflow `json:"workflow"`
}

// WorkflowStepUpdatedPayload carries a step status change
type WorkflowStepUpdatedPayload struct {
	WorkflowID string            `json:"workflow_id"`
	StepID     string            `json:"step_id"`
	OldStatus  models.StepStatus `json:"old_status"`
	NewStatus  models.StepStatus `json:"new_status"`
	Comment    string            `json:"comment,omitempty"`
}

// WorkflowStepChangedPayload carries a current-step advancement
type WorkflowStepChangedPayload struct {
	WorkflowID    string `json:"workflow_id"`
	PreviousIndex int    `json:"previous_index"`
	CurrentIndex  int    `json:"current_index"`
}
