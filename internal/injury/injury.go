// Package injury stores the injury records a host attaches to body parts.
package injury

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/bodyview/internal/focus"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("injury not found")
	// ErrInvalid is returned for records that cannot be stored.
	ErrInvalid = errors.New("invalid injury")
)

// Record is one injury on one body part.
type Record struct {
	ID        uuid.UUID    `json:"id"`
	BodyPart  string       `json:"body_part"`
	Status    focus.Status `json:"status"`
	Severity  string       `json:"severity,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Input holds the caller-supplied fields of a new record.
type Input struct {
	BodyPart string `json:"body_part"`
	Status   string `json:"status"`
	Severity string `json:"severity"`
	Notes    string `json:"notes"`
}

// Validate checks that the input names a body part.
func (in Input) Validate() error {
	if strings.TrimSpace(in.BodyPart) == "" {
		return errors.Join(ErrInvalid, errors.New("body_part is required"))
	}
	return nil
}
