package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexflow/backend/internal/domain/models"
)

// WorkflowEngine defines the workflow operations exposed over REST
type WorkflowEngine interface {
	CreateWorkflow(ctx context.Context, documentID, templateName string) (*models.Workflow, error)
	UpdateStepStatus(ctx context.Context, workflowID, stepID string, newStatus models.StepStatus, comment, author string) (*models.Workflow, error)
	MoveToNextStep(ctx context.Context, workflowID string) (*models.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	GetWorkflowForDocument(ctx context.Context, documentID string) (*models.Workflow, error)
}

// WorkflowHandler handles workflow engine API endpoints
type WorkflowHandler struct {
	svc WorkflowEngine
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(svc WorkflowEngine) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// CreateWorkflowRequest represents an explicit workflow creation call
type CreateWorkflowRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Template   string `json:"template"`
}

// UpdateStepStatusRequest represents a step status update
type UpdateStepStatusRequest struct {
	Status  models.StepStatus `json:"status" binding:"required"`
	Comment string            `json:"comment"`
}

// Create handles POST /api/workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	var req CreateWorkflowRequest
	if !BindJSON(c, &req) {
		return
	}

	template := req.Template
	if template == "" {
		template = "standard"
	}

	wf, err := h.svc.CreateWorkflow(c.Request.Context(), req.DocumentID, template)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": wf})
}

// UpdateStepStatus handles PATCH /api/workflows/:id/steps/:stepId
func (h *WorkflowHandler) UpdateStepStatus(c *gin.Context) {
	workflowID := c.Param("id")
	stepID := c.Param("stepId")
	actor := GetActorFromContext(c)

	var req UpdateStepStatusRequest
	if !BindJSON(c, &req) {
		return
	}

	author := ""
	if actor != nil {
		author = actor.Name
	}

	wf, err := h.svc.UpdateStepStatus(c.Request.Context(), workflowID, stepID, req.Status, req.Comment, author)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": wf})
}

// Advance handles POST /api/workflows/:id/advance
func (h *WorkflowHandler) Advance(c *gin.Context) {
	workflowID := c.Param("id")

	wf, err := h.svc.MoveToNextStep(c.Request.Context(), workflowID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": wf})
}

// Get handles GET /api/workflows/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	id := c.Param("id")
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.svc.GetWorkflow(c.Request.Context(), id)
	})
}

// GetForDocument handles GET /api/documents/:id/workflow
func (h *WorkflowHandler) GetForDocument(c *gin.Context) {
	documentID := c.Param("id")
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.svc.GetWorkflowForDocument(c.Request.Context(), documentID)
	})
}
