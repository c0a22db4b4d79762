// Package app provides the application layer.
//
// Scheduler owns the poll lifecycle loop: periodic, targeted and manual sweeps
// that reconcile stored polls with their chat messages. Suggestions is the
// creation use case. Both depend on domain interfaces only.
package app
