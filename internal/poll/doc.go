// Package poll holds the pure poll lifecycle: reaction tallying, the closure
// decision and rendering of the display payload. Nothing here performs I/O,
// so every function is deterministic in its inputs.
package poll
