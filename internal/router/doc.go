// Package router implements the event classifier.
//
// A single goroutine consumes gateway events in delivery order, applies each
// one to the owning store and publishes a notification for every accepted
// change. It is the only writer of the stores.
package router
