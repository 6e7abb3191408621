package services

import (
	"context"
	"sync"
	"time"

	"github.com/lexflow/backend/internal/domain/models"
	appErrors "github.com/lexflow/backend/pkg/errors"
	"github.com/lexflow/backend/pkg/utils"
)

// NotificationService keeps per-recipient notifications in memory.
// It receives workflow-attachment failures, step assignments and
// overdue escalations.
type NotificationService struct {
	byRecipient map[string][]*models.Notification
	byID        map[string]*models.Notification
	mu          sync.RWMutex
}

// NewNotificationService creates a new NotificationService
func NewNotificationService() *NotificationService {
	return &NotificationService{
		byRecipient: make(map[string][]*models.Notification),
		byID:        make(map[string]*models.Notification),
	}
}

// Notify records a notification for the recipient
func (s *NotificationService) Notify(ctx context.Context, recipientID, title, body, notificationType string) *models.Notification {
	n := &models.Notification{
		ID:          utils.GenerateID(),
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Type:        notificationType,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRecipient[recipientID] = append(s.byRecipient[recipientID], n)
	s.byID[n.ID] = n

	copied := *n
	return &copied
}

// GetForRecipient returns the recipient's notifications, newest first
func (s *NotificationService) GetForRecipient(ctx context.Context, recipientID string) []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byRecipient[recipientID]
	result := make([]*models.Notification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		copied := *stored[i]
		result = append(result, &copied)
	}
	return result
}

// MarkAsRead marks a notification as read
func (s *NotificationService) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return appErrors.NewNotFoundError("Notification", id)
	}
	n.IsRead = true
	return nil
}
