package models

import (
	"errors"
	"fmt"
)

var (
	// ErrStructuralIntegrity marks a result tree whose parent/root links are broken
	ErrStructuralIntegrity = errors.New("structural integrity violation")

	// ErrUnknownState marks a leaf whose state is outside the known set
	ErrUnknownState = errors.New("unknown test state")

	// ErrDuplicateIdentifier marks an id_ref that occurs more than once
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
)

// StructuralIntegrityError reports a tree that cannot be aggregated or compared
type StructuralIntegrityError struct {
	ResultID string
	NodeID   int
	Reason   string
}

func (e *StructuralIntegrityError) Error() string {
	if e.NodeID < 0 {
		return fmt.Sprintf("result %s: %s: %s", e.ResultID, ErrStructuralIntegrity, e.Reason)
	}
	return fmt.Sprintf("result %s: node %d: %s: %s", e.ResultID, e.NodeID, ErrStructuralIntegrity, e.Reason)
}

func (e *StructuralIntegrityError) Is(target error) bool {
	return target == ErrStructuralIntegrity
}

// UnknownStateError reports a leaf carrying an unrecognized state
type UnknownStateError struct {
	IDRef string
	State State
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("test %s: %s %q", e.IDRef, ErrUnknownState, e.State)
}

func (e *UnknownStateError) Is(target error) bool {
	return target == ErrUnknownState
}

// DuplicateIdentifierError reports an id_ref seen more than once in one scope
type DuplicateIdentifierError struct {
	IDRef string
	Count int
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("%s %q (%d occurrences)", ErrDuplicateIdentifier, e.IDRef, e.Count)
}

func (e *DuplicateIdentifierError) Is(target error) bool {
	return target == ErrDuplicateIdentifier
}
