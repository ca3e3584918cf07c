// Package resource governs the shared budgets of an index.
//
// A Controller bounds three things:
//
//   - Memory: bytes held by vector code storage. Reservations are
//     non-blocking and fail fast with ErrMemoryLimitExceeded.
//   - Scan workers: the number of goroutines scanning the store at once,
//     shared by all concurrent searches.
//   - IO: snapshot bandwidth, through a token bucket.
//
// A nil *Controller is valid and imposes no limits.
package resource
