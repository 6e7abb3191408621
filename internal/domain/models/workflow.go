package models

import (
	"time"
)

// WorkflowStatus is the aggregate status of a workflow. It shares its
// value set with StepStatus and is derived from the steps' statuses.
type WorkflowStatus = StepStatus

// StepStatus represents the status of a single workflow step
type StepStatus string

const (
	StepStatusPending    StepStatus = "Pending"
	StepStatusInProgress StepStatus = "InProgress"
	StepStatusCompleted  StepStatus = "Completed"
	StepStatusRejected   StepStatus = "Rejected"
	StepStatusBlocked    StepStatus = "Blocked"
)

// IsValid reports whether the value is a known step status
func (s StepStatus) IsValid() bool {
	switch s {
	case StepStatusPending, StepStatusInProgress, StepStatusCompleted, StepStatusRejected, StepStatusBlocked:
		return true
	}
	return false
}

// IsTerminal reports whether the aggregate status is terminal.
// The engine performs no further activity on a terminal workflow,
// though nothing technically blocks further calls.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusRejected
}

// StepType categorizes a workflow step
type StepType string

const (
	StepTypeReview       StepType = "Review"
	StepTypeApproval     StepType = "Approval"
	StepTypeSignature    StepType = "Signature"
	StepTypeDistribution StepType = "Distribution"
	StepTypeCustom       StepType = "Custom"
)

// StepComment is a comment attached to a workflow step
type StepComment struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkflowStep is a single unit of work within a workflow. Owned by
// exactly one workflow; never shared.
type WorkflowStep struct {
	ID          string        `json:"id"`
	Type        StepType      `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Assignee    string        `json:"assignee"`
	Status      StepStatus    `json:"status"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Comments    []StepComment `json:"comments,omitempty"`
}

// StepDefinition is the template-level description of a step, before
// ids and runtime status are assigned. DueInDays > 0 gives the step a
// due date relative to workflow creation.
type StepDefinition struct {
	Type        StepType `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Assignee    string   `json:"assignee"`
	DueInDays   int      `json:"due_in_days,omitempty"`
}

// Workflow is an ordered sequence of steps attached to one document.
// DocumentID is a back-reference for lookup, not ownership. Step
// positions are meaningful and fixed at creation; CurrentStepIndex
// always points into Steps.
type Workflow struct {
	ID               string         `json:"id"`
	DocumentID       string         `json:"document_id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Steps            []WorkflowStep `json:"steps"`
	CurrentStepIndex int            `json:"current_step_index"`
	Status           WorkflowStatus `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	ModifiedAt       time.Time      `json:"modified_at"`
}

// CurrentStep returns the step at the current index
func (w *Workflow) CurrentStep() *WorkflowStep {
	return &w.Steps[w.CurrentStepIndex]
}

// StepByID returns the step with the given id, or nil
func (w *Workflow) StepByID(stepID string) *WorkflowStep {
	for i := range w.Steps {
		if w.Steps[i].ID == stepID {
			return &w.Steps[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can never mutate stored records
func (w *Workflow) Clone() *Workflow {
	copied := *w
	copied.Steps = make([]WorkflowStep, len(w.Steps))
	for i, step := range w.Steps {
		copied.Steps[i] = step
		if step.Comments != nil {
			copied.Steps[i].Comments = append([]StepComment(nil), step.Comments...)
		}
	}
	return &copied
}
