// Package repository defines errors shared by the storage adapters.
package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("repository: record not found")
