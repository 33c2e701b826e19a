package domain

import "errors"

// ErrFamilyNotFound is returned by family sources when no individual belongs
// to the requested family.
var ErrFamilyNotFound = errors.New("family not found")
