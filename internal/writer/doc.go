// Package writer turns raw API records into rows of the active-strike table.
//
// Only 5-minute aligned slots are kept. The first slot of a session may be
// reported late (09:16 or 09:17 instead of 09:15); while the day has no rows
// yet such a record is accepted in its place.
//
// The table holds at most one row per (Date, Time). A newer row for the same
// slot replaces the older one.
//
// Stored rows can be mirrored to TimescaleDB. The mirror upserts on the slot
// key so replays are idempotent.
package writer
