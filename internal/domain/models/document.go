package models

import (
	"time"
)

// DocumentStatus represents the lifecycle status of a document
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "Draft"
	DocumentStatusInReview DocumentStatus = "InReview"
	DocumentStatusApproved DocumentStatus = "Approved"
	DocumentStatusRejected DocumentStatus = "Rejected"
)

// IsValid reports whether the value is a known document status
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusInReview, DocumentStatusApproved, DocumentStatusRejected:
		return true
	}
	return false
}

// Document represents a legal document whose lifecycle is tracked
// independently of any attached workflow. Owned exclusively by the
// document registry; mutated only through its operations.
type Document struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Template   string         `json:"template"`
	Status     DocumentStatus `json:"status"`
	Author     string         `json:"author"`
	Version    int            `json:"version"`
	Tags       []string       `json:"tags,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ModifiedAt time.Time      `json:"modified_at"`
}

// Clone returns a deep copy so callers can never mutate stored records
func (d *Document) Clone() *Document {
	copied := *d
	if d.Tags != nil {
		copied.Tags = append([]string(nil), d.Tags...)
	}
	return &copied
}

// Env returns the document as an expression-filter environment
func (d *Document) Env() map[string]interface{} {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"id":          d.ID,
		"title":       d.Title,
		"template":    d.Template,
		"status":      string(d.Status),
		"author":      d.Author,
		"version":     d.Version,
		"tags":        tags,
		"created_at":  d.CreatedAt,
		"modified_at": d.ModifiedAt,
	}
}
