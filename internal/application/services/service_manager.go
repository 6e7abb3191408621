package services

import (
	"log"

	"github.com/lexflow/backend/internal/domain"
	"github.com/lexflow/backend/pkg/expression"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	EventBus     *EventBus
	Expression   *expression.Engine
	Documents    *DocumentService
	Templates    *TemplateResolver
	Workflows    *WorkflowService
	Notification *NotificationService
	Auth         *AuthService
	Escalation   *EscalationService
}

// NewServiceManager creates a new service manager with all
// dependencies wired. The lifecycle policy governs document status
// transitions; escalationCron drives the overdue-step sweep.
func NewServiceManager(policy domain.LifecyclePolicy, escalationCron string) (*ServiceManager, error) {
	sm := &ServiceManager{}

	// Initialize services in dependency order
	sm.EventBus = NewEventBus()
	sm.Expression = expression.NewEngine()
	sm.Documents = NewDocumentService(sm.EventBus, policy, sm.Expression)
	sm.Templates = NewTemplateResolver()
	sm.Notification = NewNotificationService()
	sm.Workflows = NewWorkflowService(sm.EventBus, sm.Templates, sm.Notification)
	sm.Auth = NewAuthService()

	escalation, err := NewEscalationService(sm.Workflows, sm.Notification, escalationCron)
	if err != nil {
		return nil, err
	}
	sm.Escalation = escalation

	// Wire the engine's document-event reactions
	sm.Workflows.RegisterEventHandlers()

	return sm, nil
}

// StartEscalationWorker starts the background overdue-step sweep.
// Call this during server startup.
func (sm *ServiceManager) StartEscalationWorker() {
	go sm.Escalation.Start()
	log.Println("⏰ Escalation worker started")
}

// StopEscalationWorker stops the background sweep gracefully.
// Call this during server shutdown.
func (sm *ServiceManager) StopEscalationWorker() {
	sm.Escalation.Stop()
}
