package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/backend/internal/domain/events"
	"github.com/lexflow/backend/internal/domain/models"
	appErrors "github.com/lexflow/backend/pkg/errors"
)

func TestWorkflowService_CreateWorkflow(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	var created *events.WorkflowCreatedPayload
	sm.EventBus.Subscribe(events.WorkflowCreated, func(ctx context.Context, payload interface{}) error {
		p := payload.(events.WorkflowCreatedPayload)
		created = &p
		return nil
	})

	wf, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, "doc-1", wf.DocumentID)
	assert.Equal(t, 0, wf.CurrentStepIndex)
	assert.Equal(t, models.StepStatusPending, wf.Status)

	require.Len(t, wf.Steps, 3)
	for i, step := range wf.Steps {
		assert.Equal(t, fmt.Sprintf("%s-%d", wf.ID, i+1), step.ID)
		assert.Equal(t, models.StepStatusPending, step.Status)
		assert.NotNil(t, step.DueDate)
	}
	assert.Equal(t, models.StepTypeReview, wf.Steps[0].Type)
	assert.Equal(t, models.StepTypeApproval, wf.Steps[1].Type)
	assert.Equal(t, models.StepTypeSignature, wf.Steps[2].Type)

	require.NotNil(t, created)
	assert.Equal(t, wf.ID, created.Workflow.ID)

	// First step assignee is told about the work
	inbox := sm.Notification.GetForRecipient(ctx, wf.Steps[0].Assignee)
	require.NotEmpty(t, inbox)
	assert.Equal(t, models.NotificationTypeStepAssigned, inbox[0].Type)
}

func TestWorkflowService_CreateWorkflow_OnePerDocument(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	_, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	_, err = sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	assert.True(t, appErrors.IsConflict(err), "a document carries at most one workflow")
}

func TestWorkflowService_CreateWorkflow_EmptyDocumentID(t *testing.T) {
	sm := newTestStack(t)

	_, err := sm.Workflows.CreateWorkflow(context.Background(), "", StandardTemplate)
	assert.True(t, appErrors.IsValidation(err))
}

func TestWorkflowService_UpdateStepStatus(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	wf, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	var received *events.WorkflowStepUpdatedPayload
	sm.EventBus.Subscribe(events.WorkflowStepUpdated, func(ctx context.Context, payload interface{}) error {
		p := payload.(events.WorkflowStepUpdatedPayload)
		received = &p
		return nil
	})

	updated, err := sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[0].ID, models.StepStatusCompleted, "looks good", "alice")
	require.NoError(t, err)

	step := updated.Steps[0]
	assert.Equal(t, models.StepStatusCompleted, step.Status)
	require.NotNil(t, step.CompletedAt)
	require.Len(t, step.Comments, 1)
	assert.Equal(t, "alice", step.Comments[0].Author)
	assert.Equal(t, "looks good", step.Comments[0].Body)

	require.NotNil(t, received)
	assert.Equal(t, wf.ID, received.WorkflowID)
	assert.Equal(t, wf.Steps[0].ID, received.StepID)
	assert.Equal(t, models.StepStatusPending, received.OldStatus)
	assert.Equal(t, models.StepStatusCompleted, received.NewStatus)
}

func TestWorkflowService_UpdateStepStatus_Errors(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	wf, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	_, err = sm.Workflows.UpdateStepStatus(ctx, "missing", wf.Steps[0].ID, models.StepStatusCompleted, "", "")
	assert.True(t, appErrors.IsNotFound(err))

	_, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, "missing-step", models.StepStatusCompleted, "", "")
	assert.True(t, appErrors.IsNotFound(err))

	_, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[0].ID, models.StepStatus("Paused"), "", "")
	assert.True(t, appErrors.IsValidation(err))
}

func TestDeriveAggregateStatus(t *testing.T) {
	build := func(previous models.WorkflowStatus, statuses ...models.StepStatus) *models.Workflow {
		wf := &models.Workflow{Status: previous}
		for _, st := range statuses {
			wf.Steps = append(wf.Steps, models.WorkflowStep{Status: st})
		}
		return wf
	}

	tests := []struct {
		name     string
		wf       *models.Workflow
		expected models.WorkflowStatus
	}{
		{
			"all completed wins",
			build(models.StepStatusInProgress, models.StepStatusCompleted, models.StepStatusCompleted),
			models.StepStatusCompleted,
		},
		{
			"rejection dominates in-progress",
			build(models.StepStatusPending, models.StepStatusCompleted, models.StepStatusRejected, models.StepStatusInProgress),
			models.StepStatusRejected,
		},
		{
			"in-progress dominates blocked",
			build(models.StepStatusPending, models.StepStatusInProgress, models.StepStatusBlocked, models.StepStatusPending),
			models.StepStatusInProgress,
		},
		{
			"blocked with rest pending",
			build(models.StepStatusPending, models.StepStatusBlocked, models.StepStatusPending),
			models.StepStatusBlocked,
		},
		{
			"completed and pending only keeps previous status",
			build(models.StepStatusPending, models.StepStatusCompleted, models.StepStatusPending),
			models.StepStatusPending,
		},
		{
			"all pending keeps previous status even after regression",
			build(models.StepStatusInProgress, models.StepStatusPending, models.StepStatusPending),
			models.StepStatusInProgress,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, deriveAggregateStatus(tc.wf))
		})
	}
}

func TestWorkflowService_MoveToNextStep(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	wf, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	// Current step must be Completed before advancing
	_, err = sm.Workflows.MoveToNextStep(ctx, wf.ID)
	assert.True(t, appErrors.IsInvalidState(err))

	_, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[0].ID, models.StepStatusCompleted, "", "")
	require.NoError(t, err)

	var received *events.WorkflowStepChangedPayload
	sm.EventBus.Subscribe(events.WorkflowStepChanged, func(ctx context.Context, payload interface{}) error {
		p := payload.(events.WorkflowStepChangedPayload)
		received = &p
		return nil
	})

	advanced, err := sm.Workflows.MoveToNextStep(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, advanced.CurrentStepIndex)
	assert.Equal(t, models.StepStatusInProgress, advanced.Steps[1].Status)

	// Advancing flips the new step to InProgress without recomputing
	// the aggregate; it refreshes on the next step update
	assert.Equal(t, models.StepStatusPending, advanced.Status)

	require.NotNil(t, received)
	assert.Equal(t, 0, received.PreviousIndex)
	assert.Equal(t, 1, received.CurrentIndex)

	// The approval assignee hears about the new assignment
	inbox := sm.Notification.GetForRecipient(ctx, advanced.Steps[1].Assignee)
	require.NotEmpty(t, inbox)
	assert.Equal(t, models.NotificationTypeStepAssigned, inbox[0].Type)
}

func TestWorkflowService_MoveToNextStep_FinalStepBoundary(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	wf, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	for i := 0; i < len(wf.Steps)-1; i++ {
		_, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[i].ID, models.StepStatusCompleted, "", "")
		require.NoError(t, err)
		_, err = sm.Workflows.MoveToNextStep(ctx, wf.ID)
		require.NoError(t, err)
	}

	_, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[2].ID, models.StepStatusCompleted, "", "")
	require.NoError(t, err)

	_, err = sm.Workflows.MoveToNextStep(ctx, wf.ID)
	assert.True(t, appErrors.IsInvalidState(err), "cannot advance past the final step")

	final, err := sm.Workflows.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusCompleted, final.Status)
}

func TestWorkflowService_GetWorkflow(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	wf, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	// Repeated reads observe identical state
	first, err := sm.Workflows.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	second, err := sm.Workflows.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Mutating a returned copy does not leak into the store
	first.Steps[0].Status = models.StepStatusRejected
	stored, err := sm.Workflows.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusPending, stored.Steps[0].Status)

	_, err = sm.Workflows.GetWorkflow(ctx, "missing")
	assert.True(t, appErrors.IsNotFound(err))

	byDoc, err := sm.Workflows.GetWorkflowForDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, wf.ID, byDoc.ID)

	_, err = sm.Workflows.GetWorkflowForDocument(ctx, "other-doc")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestWorkflowService_DocumentCreatedAttachesWorkflow(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	doc, err := sm.Documents.CreateDocument(ctx, CreateDocumentRequest{Title: "MSA", Author: "alice"})
	require.NoError(t, err)

	// The workflow exists by the time document creation returns
	wf, err := sm.Workflows.GetWorkflowForDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, wf.DocumentID)
	assert.Len(t, wf.Steps, 3)
	assert.Equal(t, 0, wf.CurrentStepIndex)
	assert.Equal(t, models.StepStatusPending, wf.Status)
}

func TestWorkflowService_AttachmentFailureNotifiesAuthor(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	doc, err := sm.Documents.CreateDocument(ctx, CreateDocumentRequest{Title: "MSA", Author: "alice"})
	require.NoError(t, err)

	// Replaying document.created hits the one-workflow-per-document
	// guard; the failure surfaces as a notification, never an error
	err = sm.EventBus.Publish(ctx, events.DocumentCreated, events.DocumentCreatedPayload{Document: doc})
	require.NoError(t, err)

	inbox := sm.Notification.GetForRecipient(ctx, "alice")
	require.NotEmpty(t, inbox)
	assert.Equal(t, models.NotificationTypeWorkflowFailed, inbox[0].Type)
}

func TestWorkflowService_DocumentApprovedForceCompletes(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	doc, err := sm.Documents.CreateDocument(ctx, CreateDocumentRequest{Title: "MSA", Author: "alice"})
	require.NoError(t, err)

	wf, err := sm.Workflows.GetWorkflowForDocument(ctx, doc.ID)
	require.NoError(t, err)
	_, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[0].ID, models.StepStatusCompleted, "", "")
	require.NoError(t, err)

	_, err = sm.Documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusApproved)
	require.NoError(t, err)

	after, err := sm.Workflows.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusCompleted, after.Status)
	for _, step := range after.Steps {
		assert.Equal(t, models.StepStatusCompleted, step.Status)
		assert.NotNil(t, step.CompletedAt)
	}
}

func TestWorkflowService_DocumentRejectedMarksAggregateOnly(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	doc, err := sm.Documents.CreateDocument(ctx, CreateDocumentRequest{Title: "MSA", Author: "alice"})
	require.NoError(t, err)

	wf, err := sm.Workflows.GetWorkflowForDocument(ctx, doc.ID)
	require.NoError(t, err)
	_, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[0].ID, models.StepStatusInProgress, "", "")
	require.NoError(t, err)

	_, err = sm.Documents.UpdateStatus(ctx, doc.ID, models.DocumentStatusRejected)
	require.NoError(t, err)

	after, err := sm.Workflows.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusRejected, after.Status)

	// Steps keep their own state; only the aggregate is overridden
	assert.Equal(t, models.StepStatusInProgress, after.Steps[0].Status)
	assert.Equal(t, models.StepStatusPending, after.Steps[1].Status)
	assert.Equal(t, models.StepStatusPending, after.Steps[2].Status)
}

func TestWorkflowService_ReviewPipeline(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	doc, err := sm.Documents.CreateDocument(ctx, CreateDocumentRequest{Title: "Service Agreement", Author: "alice"})
	require.NoError(t, err)

	wf, err := sm.Workflows.GetWorkflowForDocument(ctx, doc.ID)
	require.NoError(t, err)

	// Review completes; the aggregate keeps its previous Pending value
	// because the remaining steps are Pending and no rule matches
	updated, err := sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[0].ID, models.StepStatusCompleted, "reviewed", "legal-reviewer")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusPending, updated.Status)

	advanced, err := sm.Workflows.MoveToNextStep(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, advanced.CurrentStepIndex)
	assert.Equal(t, models.StepStatusInProgress, advanced.Steps[1].Status)

	// The next step update finally refreshes the aggregate
	updated, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[1].ID, models.StepStatusRejected, "terms unacceptable", "legal-counsel")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusRejected, updated.Status)
}

func TestEscalationService_SweepNotifiesOverdueSteps(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	wf, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	// A sweep "now" past the first due date but before the others
	// flags only the review step
	sweepTime := wf.Steps[0].DueDate.Add(24 * time.Hour)
	sm.Escalation.sweep(ctx, sweepTime)

	inbox := sm.Notification.GetForRecipient(ctx, wf.Steps[0].Assignee)
	var overdue []string
	for _, n := range inbox {
		if n.Type == models.NotificationTypeStepOverdue {
			overdue = append(overdue, n.ID)
		}
	}
	require.Len(t, overdue, 1)

	// Repeat sweeps do not re-notify the same step
	sm.Escalation.sweep(ctx, sweepTime.Add(time.Hour))
	inbox = sm.Notification.GetForRecipient(ctx, wf.Steps[0].Assignee)
	count := 0
	for _, n := range inbox {
		if n.Type == models.NotificationTypeStepOverdue {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestEscalationService_SweepSkipsSettledSteps(t *testing.T) {
	sm := newTestStack(t)
	ctx := context.Background()

	wf, err := sm.Workflows.CreateWorkflow(ctx, "doc-1", StandardTemplate)
	require.NoError(t, err)

	_, err = sm.Workflows.UpdateStepStatus(ctx, wf.ID, wf.Steps[0].ID, models.StepStatusCompleted, "", "")
	require.NoError(t, err)

	sm.Escalation.sweep(ctx, wf.Steps[0].DueDate.Add(24*time.Hour))

	for _, n := range sm.Notification.GetForRecipient(ctx, wf.Steps[0].Assignee) {
		assert.NotEqual(t, models.NotificationTypeStepOverdue, n.Type, "completed steps never escalate")
	}
}
