// Package repository contains the database/sql data access layer.
// Methods whose name ends in Tx run inside a caller-provided
// transaction; the caller (normally a service) begins the transaction,
// defers a rollback and commits once every step has succeeded.  This
// file defines sentinel errors shared across repositories so services
// can distinguish failure scenarios without string matching.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another member, e.g. reading someone else's
// reservation. Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientCredit is returned by MemberRepo.DebitTx when the
// conditional balance update matches no row, i.e. the member's credit
// cannot cover the amount. Services map it to the ShortCredit error.
var ErrInsufficientCredit = errors.New("insufficient credit")

// ErrEmailExists is returned when registration collides with an
// existing member email.
var ErrEmailExists = errors.New("email already exists")
