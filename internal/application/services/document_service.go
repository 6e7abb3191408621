package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lexflow/backend/internal/domain"
	"github.com/lexflow/backend/internal/domain/events"
	"github.com/lexflow/backend/internal/domain/models"
	"github.com/lexflow/backend/internal/domain/ports"
	appErrors "github.com/lexflow/backend/pkg/errors"
	"github.com/lexflow/backend/pkg/expression"
	"github.com/lexflow/backend/pkg/utils"
)

// DocumentService is the document registry. It owns all document
// records and their lifecycle status; documents are mutated only
// through its operations. It has no knowledge of workflows.
type DocumentService struct {
	documents map[string]*models.Document
	order     []string // creation order for listing
	bus       ports.EventPublisher
	policy    domain.LifecyclePolicy
	exprSvc   *expression.Engine
	mu        sync.RWMutex
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(bus ports.EventPublisher, policy domain.LifecyclePolicy, exprSvc *expression.Engine) *DocumentService {
	return &DocumentService{
		documents: make(map[string]*models.Document),
		bus:       bus,
		policy:    policy,
		exprSvc:   exprSvc,
	}
}

// CreateDocumentRequest is the input for creating a document
type CreateDocumentRequest struct {
	Title    string   `json:"title"`
	Template string   `json:"template"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags,omitempty"`
}

// CreateDocument registers a fresh document in Draft status and
// publishes document.created with the full payload. Workflow
// attachment happens through that event and is best-effort: a
// subscriber failure never rolls back the document.
func (s *DocumentService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*models.Document, error) {
	now := time.Now().UTC()
	doc := &models.Document{
		ID:         utils.GenerateID(),
		Title:      req.Title,
		Template:   req.Template,
		Status:     models.DocumentStatusDraft,
		Author:     req.Author,
		Version:    1,
		Tags:       append([]string(nil), req.Tags...),
		CreatedAt:  now,
		ModifiedAt: now,
	}

	s.mu.Lock()
	s.documents[doc.ID] = doc
	s.order = append(s.order, doc.ID)
	s.mu.Unlock()

	// Publish outside the lock so subscribers can call back in
	if err := s.bus.Publish(ctx, events.DocumentCreated, events.DocumentCreatedPayload{Document: doc.Clone()}); err != nil {
		log.Printf("⚠️ document.created subscriber error for %s: %v", doc.ID, err)
	}

	return doc.Clone(), nil
}

// UpdateStatus changes a document's lifecycle status after consulting
// the lifecycle policy, then publishes document.statusChanged.
func (s *DocumentService) UpdateStatus(ctx context.Context, id string, newStatus models.DocumentStatus) (*models.Document, error) {
	if !newStatus.IsValid() {
		return nil, appErrors.NewValidationError("status", "unknown document status: "+string(newStatus))
	}

	s.mu.Lock()
	doc, ok := s.documents[id]
	if !ok {
		s.mu.Unlock()
		return nil, appErrors.NewNotFoundError("Document", id)
	}

	oldStatus := doc.Status
	if err := s.policy.Validate(oldStatus, newStatus); err != nil {
		s.mu.Unlock()
		return nil, appErrors.NewInvalidStateError("Document", err.Error())
	}

	doc.Status = newStatus
	doc.ModifiedAt = time.Now().UTC()
	result := doc.Clone()
	s.mu.Unlock()

	payload := events.DocumentStatusChangedPayload{
		DocumentID: id,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
	}
	if err := s.bus.Publish(ctx, events.DocumentStatusChanged, payload); err != nil {
		log.Printf("⚠️ document.statusChanged subscriber error for %s: %v", id, err)
	}

	return result, nil
}

// GetDocument returns the document with the given id
func (s *DocumentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, appErrors.NewNotFoundError("Document", id)
	}
	return doc.Clone(), nil
}

// ListDocuments returns all documents in creation order
func (s *DocumentService) ListDocuments(ctx context.Context) []*models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.documents[id].Clone())
	}
	return result
}

// SearchCriteria is a partial document match. Provided fields are
// combined as an exact-match conjunction; Filter is an optional
// boolean expression evaluated against each candidate.
type SearchCriteria struct {
	Status   models.DocumentStatus `json:"status,omitempty"`
	Author   string                `json:"author,omitempty"`
	Template string                `json:"template,omitempty"`
	Tag      string                `json:"tag,omitempty"`
	Filter   string                `json:"filter,omitempty"`
}

// SearchDocuments returns documents matching every provided criterion
func (s *DocumentService) SearchDocuments(ctx context.Context, criteria SearchCriteria) ([]*models.Document, error) {
	s.mu.RLock()
	candidates := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		candidates = append(candidates, s.documents[id].Clone())
	}
	s.mu.RUnlock()

	result := make([]*models.Document, 0)
	for _, doc := range candidates {
		if criteria.Status != "" && doc.Status != criteria.Status {
			continue
		}
		if criteria.Author != "" && doc.Author != criteria.Author {
			continue
		}
		if criteria.Template != "" && doc.Template != criteria.Template {
			continue
		}
		if criteria.Tag != "" && !hasTag(doc.Tags, criteria.Tag) {
			continue
		}
		if criteria.Filter != "" {
			matched, err := s.exprSvc.EvaluateCondition(criteria.Filter, doc.Env())
			if err != nil {
				return nil, appErrors.NewValidationError("filter", err.Error())
			}
			if !matched {
				continue
			}
		}
		result = append(result, doc)
	}
	return result, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
