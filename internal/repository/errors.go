// Package repository contains data access logic separated from HTTP handlers.
// This file defines sentinel errors shared across repositories so handlers
// can translate failures into HTTP codes without inspecting SQL errors.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// existing state, such as actioning a reservation that has already been
// approved or rejected. Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned on user creation when the email is taken.
var ErrEmailExists = errors.New("email already exists")
