// Package admin implements the entity-driven CRUD dispatcher behind the
// admin panel: one generic execution path over every registered entity.
package admin

import (
	"fmt"

	"github.com/authboard/authboard/internal/shared"
)

// Record is an opaque field-name to value mapping. Field names are the
// camelCase names used on the wire; the repository maps them to columns.
type Record map[string]any

// DeleteResult is the fixed response of a delete action.
type DeleteResult struct {
	Success bool `json:"success"`
}

// Action enumerates the four dispatcher operations. Keeping this closed
// lets the dispatch switch be checked for exhaustiveness.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
	ActionFind
)

// ParseAction maps a wire action string onto the enum.
func ParseAction(s string) (Action, error) {
	switch s {
	case "create":
		return ActionCreate, nil
	case "update":
		return ActionUpdate, nil
	case "delete":
		return ActionDelete, nil
	case "find":
		return ActionFind, nil
	default:
		return 0, fmt.Errorf("%w: %s", shared.ErrUnsupportedAction, s)
	}
}

// String returns the wire representation of the action.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionFind:
		return "find"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ID extracts the record identifier, tolerating non-string JSON values.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
