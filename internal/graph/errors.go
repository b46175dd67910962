package graph

import (
	"fmt"
	"strings"
)

// Kind classifies a validation failure.
type Kind string

const (
	DuplicateIdentifier   Kind = "DuplicateIdentifier"
	DanglingReference     Kind = "DanglingReference"
	DuplicateInputBinding Kind = "DuplicateInputBinding"
	CycleDetected         Kind = "CycleDetected"
	MissingRequiredInput  Kind = "MissingRequiredInput"
	TypeMismatch          Kind = "TypeMismatch"
)

// Issue is one offending instance within a validation class.
type Issue struct {
	Kind    Kind     `json:"kind"`
	NodeID  string   `json:"nodeId,omitempty"`
	EdgeID  string   `json:"edgeId,omitempty"`
	Handle  string   `json:"handle,omitempty"`
	Cycle   []string `json:"cycle,omitempty"`
	Message string   `json:"message"`
}

// ValidationError reports every issue of the first failing validation class.
type ValidationError struct {
	Kind   Kind
	Issues []Issue
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("graph validation failed (%s):\n- %s", e.Kind, strings.Join(e.Details(), "\n- "))
}

// Details returns the human-readable message of each issue.
func (e *ValidationError) Details() []string {
	details := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		details = append(details, issue.Message)
	}
	return details
}
