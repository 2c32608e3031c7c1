// Package database manages the optional Postgres pool used for durable
// historical bars.
package database
