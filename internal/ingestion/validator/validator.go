// Package validator provides input validation for document intake
// requests, adapted from the reference ingestion validator to the
// CORD-19 cord_uid/title/abstract/json_relpath shape.
package validator

import (
	"fmt"
	"strings"

	"github.com/cord19search/searchplatform/internal/ingestion"
)

const (
	maxTitleLength    = 1024
	maxAbstractLength = 1048576
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks that the request carries a cord_uid, a
// title, a json_relpath, and an abstract within size bounds.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	if strings.TrimSpace(req.CordUID) == "" {
		errs["cord_uid"] = "cord_uid is required"
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if strings.TrimSpace(req.JSONRelPath) == "" {
		errs["json_relpath"] = "json_relpath is required"
	}
	if len(req.Abstract) > maxAbstractLength {
		errs["abstract"] = fmt.Sprintf("abstract must be at most %d characters", maxAbstractLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
