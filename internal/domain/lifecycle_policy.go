package domain

import (
	"fmt"

	"github.com/lexflow/backend/internal/domain/models"
)

// LifecyclePolicy decides which document status transitions are legal.
// The registry consults the policy on every status update, so legality
// is always an explicit choice rather than an implicit assumption.
type LifecyclePolicy interface {
	// Validate returns an error if the transition is not allowed.
	Validate(from, to models.DocumentStatus) error
}

// PermissiveLifecyclePolicy allows any status to follow any other.
// This is the reference behavior: a Draft document may jump straight
// to Approved.
type PermissiveLifecyclePolicy struct{}

// Validate always succeeds
func (PermissiveLifecyclePolicy) Validate(from, to models.DocumentStatus) error {
	return nil
}

type statusTransitionKey struct {
	from models.DocumentStatus
	to   models.DocumentStatus
}

// StrictLifecyclePolicy enforces the review pipeline:
//
//	[Draft] ──► [InReview] ──► [Approved]
//	   ▲            │
//	   │            ▼
//	   └──────  [Rejected]
//
// Rejected documents may return to Draft for rework. Approved is terminal.
type StrictLifecyclePolicy struct {
	allowed map[statusTransitionKey]struct{}
}

// NewStrictLifecyclePolicy creates the strict review-pipeline policy
func NewStrictLifecyclePolicy() *StrictLifecyclePolicy {
	p := &StrictLifecyclePolicy{
		allowed: make(map[statusTransitionKey]struct{}),
	}

	p.allow(models.DocumentStatusDraft, models.DocumentStatusInReview)
	p.allow(models.DocumentStatusInReview, models.DocumentStatusApproved)
	p.allow(models.DocumentStatusInReview, models.DocumentStatusRejected)
	p.allow(models.DocumentStatusRejected, models.DocumentStatusDraft)

	return p
}

func (p *StrictLifecyclePolicy) allow(from, to models.DocumentStatus) {
	p.allowed[statusTransitionKey{from: from, to: to}] = struct{}{}
}

// Validate returns an error for transitions outside the pipeline
func (p *StrictLifecyclePolicy) Validate(from, to models.DocumentStatus) error {
	if _, ok := p.allowed[statusTransitionKey{from: from, to: to}]; !ok {
		return fmt.Errorf("illegal document status transition: %s -> %s", from, to)
	}
	return nil
}

// CanTransition checks a transition without producing an error
func (p *StrictLifecyclePolicy) CanTransition(from, to models.DocumentStatus) bool {
	_, ok := p.allowed[statusTransitionKey{from: from, to: to}]
	return ok
}

// IsTerminal returns true if no transition leaves the given status
func (p *StrictLifecyclePolicy) IsTerminal(status models.DocumentStatus) bool {
	for key := range p.allowed {
		if key.from == status {
			return false
		}
	}
	return true
}
