package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexflow/backend/internal/application/services"
	"github.com/lexflow/backend/internal/domain/models"
)

// DocumentRegistry defines the document operations exposed over REST
type DocumentRegistry interface {
	CreateDocument(ctx context.Context, req services.CreateDocumentRequest) (*models.Document, error)
	UpdateStatus(ctx context.Context, id string, newStatus models.DocumentStatus) (*models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context) []*models.Document
	SearchDocuments(ctx context.Context, criteria services.SearchCriteria) ([]*models.Document, error)
}

// DocumentHandler handles document registry API endpoints
type DocumentHandler struct {
	svc DocumentRegistry
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(svc DocumentRegistry) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// CreateDocumentRequest represents a request to create a document
type CreateDocumentRequest struct {
	Title    string   `json:"title" binding:"required"`
	Template string   `json:"template"`
	Tags     []string `json:"tags"`
}

// UpdateStatusRequest represents a document status update
type UpdateStatusRequest struct {
	Status models.DocumentStatus `json:"status" binding:"required"`
}

// Create handles POST /api/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	actor := GetActorFromContext(c)

	var req CreateDocumentRequest
	if !BindJSON(c, &req) {
		return
	}

	serviceReq := services.CreateDocumentRequest{
		Title:    req.Title,
		Template: req.Template,
		Tags:     req.Tags,
	}
	if actor != nil {
		serviceReq.Author = actor.Name
	}

	doc, err := h.svc.CreateDocument(c.Request.Context(), serviceReq)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": doc})
}

// UpdateStatus handles PATCH /api/documents/:id/status
func (h *DocumentHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req UpdateStatusRequest
	if !BindJSON(c, &req) {
		return
	}

	doc, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

// Get handles GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.svc.GetDocument(c.Request.Context(), id)
	})
}

// List handles GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.svc.ListDocuments(c.Request.Context()), nil
	})
}

// Search handles POST /api/documents/search
func (h *DocumentHandler) Search(c *gin.Context) {
	var criteria services.SearchCriteria
	if !BindJSON(c, &criteria) {
		return
	}

	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.svc.SearchDocuments(c.Request.Context(), criteria)
	})
}
