// Package patient provides the external patient-contact lookup collaborator.
package patient

import (
	"context"

	"patient-portal/backend/internal/patient/domain"
)

// Lookup resolves a patient's contact information by document.
// GetContact returns (nil, nil) when the document is unknown to the upstream
// service; errors are reserved for transport or upstream failures.
type Lookup interface {
	GetContact(ctx context.Context, docTypeCode, docNumber string) (*domain.Contact, error)
}
