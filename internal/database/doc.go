// Package database opens the optional PostgreSQL/TimescaleDB pool that
// mirrors the active-strike table.
//
// The CSV (or Parquet) table on disk stays the source of truth; the
// database copy is for querying alongside other market data.
package database
