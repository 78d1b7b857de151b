// Package api provides the client for the dashboard's active-strike REST API.
//
// Endpoint:
//   - POST https://api.oipulse.com/api/active-strike-oi/getselectedactivestrikeivalldata
//
// Requests carry the bearer token and cookies captured from the browser session.
// Responses are classified as success, expired session, or unexpected payload.
package api
