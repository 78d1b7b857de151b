// Package poller implements the collection loop.
//
// The loop has two states:
//   - Unauthenticated: a credential file is missing, so a browser capture runs
//   - Polling: one fetch per interval (5 minutes by default)
//
// Each fetch posts today's query with the stored session. An expired session
// is cleared and re-captured, then the fetch is retried once. Capture failures
// are bounded; once the bound is reached the loop stops with
// ErrCaptureExhausted.
package poller
