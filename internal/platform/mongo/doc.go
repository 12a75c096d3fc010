// Package mongo provides MongoDB implementations of the store interfaces
// defined in internal/store, plus connection management, index creation and
// a heartbeat-driven health check.
//
// Documents use camelCase field names and store ids as UUID strings in _id.
package mongo
