package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lexflow/backend/internal/domain/models"
)

// escalationCheckInterval is how often the loop checks whether the
// cron schedule has come due
const escalationCheckInterval = 30 * time.Second

// EscalationService sweeps workflows on a cron schedule and notifies
// assignees of steps whose due date has passed while the step is
// still Pending or InProgress. Each step is escalated once.
type EscalationService struct {
	workflows *WorkflowService
	notifySvc *NotificationService
	schedule  cron.Schedule
	nextRun   time.Time
	escalated map[string]struct{}
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
	stopped   bool // Prevents double-close of stopChan
}

// NewEscalationService creates an escalation service from a cron
// expression (standard 5-field format)
func NewEscalationService(workflows *WorkflowService, notifySvc *NotificationService, cronExpr string) (*EscalationService, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid escalation cron expression %q: %w", cronExpr, err)
	}

	return &EscalationService{
		workflows: workflows,
		notifySvc: notifySvc,
		schedule:  schedule,
		nextRun:   schedule.Next(time.Now()),
		escalated: make(map[string]struct{}),
		stopChan:  make(chan struct{}),
	}, nil
}

// Start begins the escalation background loop
func (s *EscalationService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("⏰ Escalation service starting...")

	ticker := time.NewTicker(escalationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runIfDue(time.Now())
		case <-s.stopChan:
			log.Println("⏰ Escalation service stopping...")
			s.wg.Wait() // Wait for a running sweep to complete
			log.Println("⏰ Escalation service stopped")
			return
		}
	}
}

// Stop gracefully stops the escalation loop
func (s *EscalationService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

func (s *EscalationService) runIfDue(now time.Time) {
	s.mu.Lock()
	if now.Before(s.nextRun) {
		s.mu.Unlock()
		return
	}
	s.nextRun = s.schedule.Next(now)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("🔥 Panic in escalation sweep: %v", r)
			}
		}()
		s.sweep(context.Background(), now.UTC())
	}()
}

// sweep scans all non-terminal workflows for overdue steps
func (s *EscalationService) sweep(ctx context.Context, now time.Time) {
	overdue := 0
	for _, wf := range s.workflows.ListWorkflows(ctx) {
		if wf.Status.IsTerminal() {
			continue
		}

		for i := range wf.Steps {
			step := &wf.Steps[i]
			if step.DueDate == nil || !step.DueDate.Before(now) {
				continue
			}
			if step.Status != models.StepStatusPending && step.Status != models.StepStatusInProgress {
				continue
			}
			if !s.markEscalated(step.ID) {
				continue
			}

			overdue++
			s.notifySvc.Notify(ctx, step.Assignee,
				fmt.Sprintf("Step overdue: %s", step.Name),
				fmt.Sprintf("Step %q in workflow %s (document %s) was due %s and is still %s",
					step.Name, wf.ID, wf.DocumentID, step.DueDate.Format("2006-01-02"), step.Status),
				models.NotificationTypeStepOverdue)
		}
	}

	if overdue > 0 {
		log.Printf("⏰ Escalation sweep: %d overdue step(s) notified", overdue)
	}
}

func (s *EscalationService) markEscalated(stepID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.escalated[stepID]; seen {
		return false
	}
	s.escalated[stepID] = struct{}{}
	return true
}
