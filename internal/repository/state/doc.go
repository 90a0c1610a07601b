// Package state implements the durable key-value store that the timer,
// stopwatch, alarm registry and snooze book checkpoint into.
//
// The Store contract is get/set/remove over opaque blobs with one disjoint
// key per owner. Three backends are provided: an in-memory map, a JSON file
// rewritten atomically on every change, and a SQLite table. A read that
// follows a write always observes that write.
package state
