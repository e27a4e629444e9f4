// Package model defines the data types exchanged between the synthetic data
// engine and the dashboard.
//
// Conventions:
//   - BTC amounts and USD values that the dashboard prints are decimal.Decimal,
//     already rounded to their display precision
//   - Raw float fields (ValueNum) are kept where the UI sorts or charts on them
//   - Timestamps are time.Time and marshal as RFC 3339
package model
