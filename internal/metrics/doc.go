// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Gateway events by kind, duplicates and discarded payloads
//   - Notifications delivered and handler panics
//   - Finished historical series per sink and sink failures
//   - Subscription ids allocated and queue depths
//
// A nil *Collectors is valid and records nothing.
package metrics
