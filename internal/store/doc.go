// Package store holds the locally mirrored gateway state.
//
// Each store guards its own data with a sync.RWMutex. The event classifier
// is the only writer; the application reads concurrently through the
// accessors, which always return copies.
package store
