// Package model defines shared data types used across the active-strike collector.
//
// Conventions:
//   - Dates: "YYYY-MM-DD" strings in the configured market timezone
//   - Slot times: "HH:MM:SS" strings exactly as reported by the API
//   - Prices and open interest: exact decimals, null when the API omits them
//   - (Date, Time) is the logical key of the persisted table
package model
