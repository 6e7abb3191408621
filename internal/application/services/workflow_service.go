package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lexflow/backend/internal/domain/events"
	"github.com/lexflow/backend/internal/domain/models"
	"github.com/lexflow/backend/internal/domain/ports"
	appErrors "github.com/lexflow/backend/pkg/errors"
	"github.com/lexflow/backend/pkg/utils"
)

// WorkflowService is the workflow engine. It owns all workflow
// instances, keyed by workflow id and by document id, advances step
// state, derives the aggregate status, and reacts to document
// lifecycle events.
type WorkflowService struct {
	workflows  map[string]*models.Workflow
	byDocument map[string]string // document id -> workflow id; one workflow per document
	bus        ports.EventPublisher
	templates  *TemplateResolver
	notifySvc  *NotificationService
	mu         sync.RWMutex
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(bus ports.EventPublisher, templates *TemplateResolver, notifySvc *NotificationService) *WorkflowService {
	return &WorkflowService{
		workflows:  make(map[string]*models.Workflow),
		byDocument: make(map[string]string),
		bus:        bus,
		templates:  templates,
		notifySvc:  notifySvc,
	}
}

// RegisterEventHandlers subscribes the engine to document lifecycle
// events. Call once during wiring.
func (s *WorkflowService) RegisterEventHandlers() {
	s.bus.Subscribe(events.DocumentCreated, s.handleDocumentCreated)
	s.bus.Subscribe(events.DocumentStatusChanged, s.handleDocumentStatusChanged)
}

// CreateWorkflow resolves the template into steps, attaches the new
// workflow to the document and publishes workflow.created. Each
// document carries at most one workflow; a second creation call for
// the same document is rejected.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, documentID, templateName string) (*models.Workflow, error) {
	if documentID == "" {
		return nil, appErrors.NewValidationError("document_id", "document id must not be empty")
	}

	defs := s.templates.Resolve(templateName)
	now := time.Now().UTC()

	wf := &models.Workflow{
		ID:               utils.GenerateID(),
		DocumentID:       documentID,
		Name:             fmt.Sprintf("%s workflow", templateName),
		Description:      fmt.Sprintf("Approval workflow (%s) for document %s", templateName, documentID),
		Steps:            make([]models.WorkflowStep, len(defs)),
		CurrentStepIndex: 0,
		Status:           models.StepStatusPending,
		CreatedAt:        now,
		ModifiedAt:       now,
	}
	for i, def := range defs {
		wf.Steps[i] = models.WorkflowStep{
			ID:          fmt.Sprintf("%s-%d", wf.ID, i+1),
			Type:        def.Type,
			Name:        def.Name,
			Description: def.Description,
			Assignee:    def.Assignee,
			Status:      models.StepStatusPending,
		}
		if def.DueInDays > 0 {
			due := now.AddDate(0, 0, def.DueInDays)
			wf.Steps[i].DueDate = &due
		}
	}

	s.mu.Lock()
	if existing, ok := s.byDocument[documentID]; ok {
		s.mu.Unlock()
		return nil, appErrors.NewConflictError("Workflow "+existing, "document_id", documentID)
	}
	s.workflows[wf.ID] = wf
	s.byDocument[documentID] = wf.ID
	result := wf.Clone()
	s.mu.Unlock()

	if err := s.bus.Publish(ctx, events.WorkflowCreated, events.WorkflowCreatedPayload{Workflow: wf.Clone()}); err != nil {
		log.Printf("⚠️ workflow.created subscriber error for %s: %v", wf.ID, err)
	}

	s.notifyAssignment(ctx, result, &result.Steps[0])

	return result, nil
}

// UpdateStepStatus sets a step's status, appends an optional comment,
// recomputes the aggregate workflow status and publishes
// workflow.stepUpdated.
func (s *WorkflowService) UpdateStepStatus(ctx context.Context, workflowID, stepID string, newStatus models.StepStatus, comment, author string) (*models.Workflow, error) {
	if !newStatus.IsValid() {
		return nil, appErrors.NewValidationError("status", "unknown step status: "+string(newStatus))
	}

	s.mu.Lock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		s.mu.Unlock()
		return nil, appErrors.NewNotFoundError("Workflow", workflowID)
	}

	step := wf.StepByID(stepID)
	if step == nil {
		s.mu.Unlock()
		return nil, appErrors.NewNotFoundError("Workflow Step", stepID)
	}

	now := time.Now().UTC()
	oldStatus := step.Status
	step.Status = newStatus
	if newStatus == models.StepStatusCompleted {
		step.CompletedAt = &now
	}
	if comment != "" {
		step.Comments = append(step.Comments, models.StepComment{
			Author:    author,
			Body:      comment,
			CreatedAt: now,
		})
	}

	wf.Status = deriveAggregateStatus(wf)
	wf.ModifiedAt = now
	result := wf.Clone()
	s.mu.Unlock()

	payload := events.WorkflowStepUpdatedPayload{
		WorkflowID: workflowID,
		StepID:     stepID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		Comment:    comment,
	}
	if err := s.bus.Publish(ctx, events.WorkflowStepUpdated, payload); err != nil {
		log.Printf("⚠️ workflow.stepUpdated subscriber error for %s: %v", workflowID, err)
	}

	return result, nil
}

// MoveToNextStep advances the current step index. The current step
// must be Completed and must not be the last step. The new current
// step is flipped to InProgress directly; the aggregate status is not
// recomputed here — the next UpdateStepStatus call refreshes it.
func (s *WorkflowService) MoveToNextStep(ctx context.Context, workflowID string) (*models.Workflow, error) {
	s.mu.Lock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		s.mu.Unlock()
		return nil, appErrors.NewNotFoundError("Workflow", workflowID)
	}

	if wf.CurrentStepIndex >= len(wf.Steps)-1 {
		s.mu.Unlock()
		return nil, appErrors.NewInvalidStateError("Workflow", "already at the final step")
	}
	if wf.CurrentStep().Status != models.StepStatusCompleted {
		s.mu.Unlock()
		return nil, appErrors.NewInvalidStateError("Workflow",
			fmt.Sprintf("current step %q is %s, not Completed", wf.CurrentStep().Name, wf.CurrentStep().Status))
	}

	previousIndex := wf.CurrentStepIndex
	wf.CurrentStepIndex++
	wf.CurrentStep().Status = models.StepStatusInProgress
	wf.ModifiedAt = time.Now().UTC()
	result := wf.Clone()
	s.mu.Unlock()

	payload := events.WorkflowStepChangedPayload{
		WorkflowID:    workflowID,
		PreviousIndex: previousIndex,
		CurrentIndex:  result.CurrentStepIndex,
	}
	if err := s.bus.Publish(ctx, events.WorkflowStepChanged, payload); err != nil {
		log.Printf("⚠️ workflow.stepChanged subscriber error for %s: %v", workflowID, err)
	}

	s.notifyAssignment(ctx, result, result.CurrentStep())

	return result, nil
}

// GetWorkflow returns the workflow with the given id
func (s *WorkflowService) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.workflows[id]
	if !ok {
		return nil, appErrors.NewNotFoundError("Workflow", id)
	}
	return wf.Clone(), nil
}

// GetWorkflowForDocument returns the workflow attached to a document
func (s *WorkflowService) GetWorkflowForDocument(ctx context.Context, documentID string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byDocument[documentID]
	if !ok {
		return nil, appErrors.NewNotFoundError("Workflow for document", documentID)
	}
	return s.workflows[id].Clone(), nil
}

// ListWorkflows returns all workflow instances
func (s *WorkflowService) ListWorkflows(ctx context.Context) []*models.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		result = append(result, wf.Clone())
	}
	return result
}

// deriveAggregateStatus recomputes the workflow status from its steps
// as an ordered decision list; the first matching rule wins:
//
//  1. every step Completed        -> Completed
//  2. any step Rejected           -> Rejected
//  3. any step InProgress         -> InProgress
//  4. any step Blocked            -> Blocked
//  5. otherwise                   -> previous status, unchanged
//
// Rule 5 means there is no all-Pending fallback: a workflow whose
// steps all regress to Pending keeps its previous aggregate status.
func deriveAggregateStatus(wf *models.Workflow) models.WorkflowStatus {
	allCompleted := true
	anyRejected := false
	anyInProgress := false
	anyBlocked := false

	for i := range wf.Steps {
		switch wf.Steps[i].Status {
		case models.StepStatusCompleted:
		case models.StepStatusRejected:
			anyRejected = true
		case models.StepStatusInProgress:
			anyInProgress = true
		case models.StepStatusBlocked:
			anyBlocked = true
		}
		if wf.Steps[i].Status != models.StepStatusCompleted {
			allCompleted = false
		}
	}

	switch {
	case allCompleted:
		return models.StepStatusCompleted
	case anyRejected:
		return models.StepStatusRejected
	case anyInProgress:
		return models.StepStatusInProgress
	case anyBlocked:
		return models.StepStatusBlocked
	default:
		return wf.Status
	}
}

// Event reactions

// handleDocumentCreated attaches the standard workflow to every new
// document. Attachment is best-effort: failures become a notification
// to the author and are never propagated back to document creation.
func (s *WorkflowService) handleDocumentCreated(ctx context.Context, payload interface{}) error {
	p, ok := payload.(events.DocumentCreatedPayload)
	if !ok {
		log.Printf("⚠️ document.created payload has unexpected type %T", payload)
		return nil
	}

	if _, err := s.CreateWorkflow(ctx, p.Document.ID, StandardTemplate); err != nil {
		log.Printf("⚠️ Failed to attach workflow to document %s: %v", p.Document.ID, err)
		s.notifySvc.Notify(ctx, p.Document.Author,
			"Workflow attachment failed",
			fmt.Sprintf("Document %q was created but its approval workflow could not be attached: %v", p.Document.Title, err),
			models.NotificationTypeWorkflowFailed)
	}
	return nil
}

// handleDocumentStatusChanged applies document lifecycle overrides to
// the attached workflow:
//
//   - Approved: force every non-Completed step to Completed and set the
//     aggregate to Completed, bypassing the decision list.
//   - Rejected: set the aggregate to Rejected without touching steps.
//   - anything else: no reaction.
func (s *WorkflowService) handleDocumentStatusChanged(ctx context.Context, payload interface{}) error {
	p, ok := payload.(events.DocumentStatusChangedPayload)
	if !ok {
		log.Printf("⚠️ document.statusChanged payload has unexpected type %T", payload)
		return nil
	}

	switch p.NewStatus {
	case models.DocumentStatusApproved:
		s.forceCompleteForDocument(p.DocumentID)
	case models.DocumentStatusRejected:
		s.rejectForDocument(p.DocumentID)
	}
	return nil
}

func (s *WorkflowService) forceCompleteForDocument(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byDocument[documentID]
	if !ok {
		return
	}
	wf := s.workflows[id]

	now := time.Now().UTC()
	for i := range wf.Steps {
		if wf.Steps[i].Status != models.StepStatusCompleted {
			wf.Steps[i].Status = models.StepStatusCompleted
			wf.Steps[i].CompletedAt = &now
		}
	}
	wf.Status = models.StepStatusCompleted
	wf.ModifiedAt = now

	log.Printf("✅ Document %s approved; workflow %s force-completed", documentID, wf.ID)
}

func (s *WorkflowService) rejectForDocument(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byDocument[documentID]
	if !ok {
		return
	}
	wf := s.workflows[id]

	wf.Status = models.StepStatusRejected
	wf.ModifiedAt = time.Now().UTC()

	log.Printf("🛑 Document %s rejected; workflow %s marked Rejected", documentID, wf.ID)
}

func (s *WorkflowService) notifyAssignment(ctx context.Context, wf *models.Workflow, step *models.WorkflowStep) {
	if step.Assignee == "" {
		return
	}
	s.notifySvc.Notify(ctx, step.Assignee,
		fmt.Sprintf("Step assigned: %s", step.Name),
		fmt.Sprintf("You are the assignee of step %q in workflow %s (document %s)", step.Name, wf.ID, wf.DocumentID),
		models.NotificationTypeStepAssigned)
}
