package netlist

import (
	"errors"
	"fmt"
	"gonetlist/internal/models"
)

var (
	// ErrNilSource is returned by New when no entity source is supplied.
	ErrNilSource = errors.New("netlist: nil entity source")
	// ErrNotManualGroup is returned when a manual-only operation targets another kind.
	ErrNotManualGroup = errors.New("netlist: not a manual group")
)

// AlreadyMemberError reports an AddMember for an entity that is grouped elsewhere.
type AlreadyMemberError struct {
	Addr  models.MAC
	Group GroupID
}

func (e *AlreadyMemberError) Error() string {
	return fmt.Sprintf("netlist: %s is already a member of %s", e.Addr, e.Group)
}

// NotMemberError reports a removal of an entity the group does not hold.
type NotMemberError struct {
	Addr  models.MAC
	Group GroupID
}

func (e *NotMemberError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("netlist: %s is not grouped", e.Addr)
	}
	return fmt.Sprintf("netlist: %s is not a member of %s", e.Addr, e.Group)
}

// MalformedEntityError reports a member field that could not contribute to an
// aggregate. The member stays grouped.
type MalformedEntityError struct {
	Addr  models.MAC
	Field string
}

func (e *MalformedEntityError) Error() string {
	return fmt.Sprintf("netlist: %s has unusable %s", e.Addr, e.Field)
}

// UnknownGroupError reports an operation on a group that does not exist (any more).
type UnknownGroupError struct {
	Group GroupID
}

func (e *UnknownGroupError) Error() string {
	return fmt.Sprintf("netlist: unknown group %s", e.Group)
}
