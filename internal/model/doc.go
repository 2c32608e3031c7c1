// Package model defines shared data types used across the gateway mirror.
//
// Conventions:
//   - Prices: float64 as reported by the gateway
//   - Quantities: int (signed for positions, unsigned magnitude on orders)
//   - Keys: canonical instrument key strings (see package instrument)
//   - IDs: int subscription ids and broker order ids
package model
