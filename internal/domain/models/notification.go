package models

import (
	"time"
)

// Notification types
const (
	NotificationTypeWorkflowFailed = "workflow_failed"
	NotificationTypeStepAssigned   = "step_assigned"
	NotificationTypeStepOverdue    = "step_overdue"
)

// Notification is a user-visible notice produced by workflow reactions
// and escalations
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Type        string    `json:"type"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
