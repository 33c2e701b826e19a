package kin

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownIndividual is matched by UnknownIndividualError.
	ErrUnknownIndividual = errors.New("unknown individual")
	// ErrCyclicAncestry is matched by CyclicAncestryError.
	ErrCyclicAncestry = errors.New("cyclic ancestry")
	// ErrTooManyParents is matched by TooManyParentsError.
	ErrTooManyParents = errors.New("too many parents")
	// ErrLevelConflict reports spouse and parent constraints that cannot be
	// satisfied on any finite set of rows.
	ErrLevelConflict = errors.New("conflicting generation levels")
	// ErrDuplicateIndividual is returned by Build when two individuals share an ID.
	ErrDuplicateIndividual = errors.New("duplicate individual id")
	// ErrEmptyIndividualID is returned by Build for an individual without an ID.
	ErrEmptyIndividualID = errors.New("individual id is required")
)

// UnknownIndividualError names an ID that is not part of the graph.
type UnknownIndividualError struct {
	ID string
}

func (e *UnknownIndividualError) Error() string {
	return fmt.Sprintf("unknown individual %q", e.ID)
}

func (e *UnknownIndividualError) Is(target error) bool {
	return target == ErrUnknownIndividual
}

// CyclicAncestryError lists the individuals that form a parent cycle. Each
// member is a recorded parent of the one before it, and the first member is
// repeated at the end.
type CyclicAncestryError struct {
	Cycle []string
}

func (e *CyclicAncestryError) Error() string {
	return "cyclic ancestry: " + strings.Join(e.Cycle, " -> ")
}

func (e *CyclicAncestryError) Is(target error) bool {
	return target == ErrCyclicAncestry
}

// TooManyParentsError is raised for a child with more than two recorded parents.
type TooManyParentsError struct {
	ChildID   string
	ParentIDs []string
}

func (e *TooManyParentsError) Error() string {
	return fmt.Sprintf("individual %q has %d recorded parents (%s)", e.ChildID, len(e.ParentIDs), strings.Join(e.ParentIDs, ", "))
}

func (e *TooManyParentsError) Is(target error) bool {
	return target == ErrTooManyParents
}
