// Package repository holds the client's durable state: a small key/value
// Store port with memory, file, Redis and MySQL implementations, and the
// typed adapters built on top of it (the single hold slot and the access
// token).
package repository

import "errors"

// ErrNotFound is returned by Store.Get when the key has no value.
// Callers treat it as "absent", never as a failure.
var ErrNotFound = errors.New("not found")

// ErrCorrupt is returned when a stored record cannot be decoded.  The
// adapters purge such records and report them as absent.
var ErrCorrupt = errors.New("corrupt record")
