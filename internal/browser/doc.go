// Package browser captures a dashboard session from an interactive browser.
//
// The operator logs in by hand inside a browser window the collector opens.
// After a fixed wait the Capturer reads the cookies for the dashboard and API
// origins plus the bearer token kept in local storage, and hands both to the
// credential store.
//
// The browser session is owned by a Capturer. It stays open between captures
// unless configured otherwise, and Close releases it.
package browser
