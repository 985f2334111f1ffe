package domain

// DocumentType is an identity document class (e.g. national ID, passport).
// Patients are keyed by (document type code, document number).
type DocumentType struct {
	ID       string
	Code     string
	Name     string
	IsActive bool
}
