package api

import (
	"bastion-hq/bastion/pkg/history"
	"bastion-hq/bastion/pkg/registry"
	"bastion-hq/bastion/pkg/validate"
)

// ValidateResponse is the body of POST /v1/schemas/{name}/validate.
// Errors is always present and empty for a valid payload.
type ValidateResponse struct {
	Valid       bool                `json:"valid"`
	Schema      string              `json:"schema"`
	Fingerprint string              `json:"fingerprint"`
	ErrorCount  int                 `json:"error_count"`
	Errors      *validate.ErrorList `json:"errors"`
}

// NewValidateResponse builds the response for one validation. errs may be nil.
func NewValidateResponse(name, fingerprint string, errs *validate.ErrorList) *ValidateResponse {
	if errs == nil {
		errs = validate.NewErrorList()
	}
	return &ValidateResponse{
		Valid:       !errs.HasErrors(),
		Schema:      name,
		Fingerprint: fingerprint,
		ErrorCount:  errs.Count(),
		Errors:      errs,
	}
}

// SchemaListResponse is the body of GET /v1/schemas.
type SchemaListResponse struct {
	Version string             `json:"version"`
	Schemas []registry.Summary `json:"schemas"`
}

// HistoryResponse is the body of GET /v1/history.
type HistoryResponse struct {
	Total   int64             `json:"total"`
	Records []*history.Record `json:"records"`
}
