// Package poller implements the clock refresher.
//
// The clock refresher asks the gateway for its current time on a fixed
// interval, so order records restamped between order events carry a recent
// gateway time rather than the one seen at startup.
package poller
