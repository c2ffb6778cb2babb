package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDataAccess marks a store fault (unreachable, query error, scan mismatch).
	ErrDataAccess = errors.New("data access error")
)

// wrap tags err as ErrDataAccess while keeping the driver error reachable via errors.Is/As.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDataAccess, err)
}
