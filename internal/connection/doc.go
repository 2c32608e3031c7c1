// Package connection talks to the trading gateway.
//
// Gateway is the command and event surface the rest of the mirror depends
// on. Client implements it over a websocket bridge that relays gateway
// events as JSON envelopes ({"type": ..., "msg": {...}}) and accepts JSON
// commands ({"id": ..., "cmd": ..., "params": {...}}).
package connection
