package services

import (
	"fmt"

	"github.com/lexflow/backend/internal/domain/models"
)

// StandardTemplate is the template attached to newly created documents
const StandardTemplate = "standard"

// TemplateResolver maps template names to ordered step-definition
// sequences. Resolution is pure: the resolver holds no runtime state
// beyond its registered templates.
type TemplateResolver struct {
	templates map[string][]models.StepDefinition
}

// NewTemplateResolver creates a resolver seeded with the standard
// review pipeline
func NewTemplateResolver() *TemplateResolver {
	r := &TemplateResolver{
		templates: make(map[string][]models.StepDefinition),
	}

	// Review -> Approval -> Signature, the default pipeline
	r.templates[StandardTemplate] = []models.StepDefinition{
		{Type: models.StepTypeReview, Name: "Initial Review", Description: "Review document content and structure", Assignee: "legal-reviewer", DueInDays: 3},
		{Type: models.StepTypeApproval, Name: "Legal Approval", Description: "Approve legal terms and conditions", Assignee: "legal-counsel", DueInDays: 5},
		{Type: models.StepTypeSignature, Name: "Final Signature", Description: "Sign the approved document", Assignee: "authorized-signer", DueInDays: 7},
	}

	return r
}

// Register adds a named template. Every template must be non-empty and
// start with a Review step.
func (r *TemplateResolver) Register(name string, defs []models.StepDefinition) error {
	if name == "" {
		return fmt.Errorf("template name must not be empty")
	}
	if len(defs) == 0 {
		return fmt.Errorf("template %q must contain at least one step", name)
	}
	if defs[0].Type != models.StepTypeReview {
		return fmt.Errorf("template %q must start with a Review step, got %s", name, defs[0].Type)
	}

	r.templates[name] = append([]models.StepDefinition(nil), defs...)
	return nil
}

// Resolve returns the step definitions for the given template name.
// Unknown names fall back to the standard sequence with the requested
// name woven into the display text, so resolution never fails and the
// result is always non-empty.
func (r *TemplateResolver) Resolve(templateName string) []models.StepDefinition {
	if defs, ok := r.templates[templateName]; ok {
		return append([]models.StepDefinition(nil), defs...)
	}

	defs := append([]models.StepDefinition(nil), r.templates[StandardTemplate]...)
	for i := range defs {
		defs[i].Description = fmt.Sprintf("%s (%s template)", defs[i].Description, templateName)
	}
	return defs
}
