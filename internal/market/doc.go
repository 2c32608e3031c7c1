// Package market implements the Identifier Registry.
//
// The registry owns the bidirectional mapping between canonical instrument
// keys and the small integer subscription ids used on the wire to correlate
// asynchronous gateway events with the request that caused them. Ids are
// allocated monotonically, reused for known keys and never freed, so late
// events always resolve to a stable key. Id 0 is a reserved sentinel.
package market
