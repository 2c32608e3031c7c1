// Package writer persists finished historical series.
//
// Sinks:
//   - CSVSink: one <key>.csv per series, rewritten on every flush
//   - PostgresSink: append-only rows in historical_bars
//
// MultiSink fans a series out to several sinks. Flusher decouples sinks from
// the event path: the classifier submits series and never waits on I/O.
package writer
