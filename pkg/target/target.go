// Package target records the external APIs that clients ask the agent to track
// through POST /connect-api. Targets live in process memory only.
package target

import (
	"fmt"
	"time"
)

// State 目标注册请求的处理状态
type State int

const (
	Idle State = iota
	Validating
	Accepted
	Rejected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request is the body of POST /connect-api.
type Request struct {
	APIURL string `json:"apiUrl" validate:"required"`
}

// Target is one registered API endpoint.
type Target struct {
	ID           string    `json:"id"`
	URL          string    `json:"apiUrl"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// MissingFieldError is returned when a required request field is absent or empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}
