// Package api implements the Google smart-home fulfillment endpoint and the
// bridge's small operator API.
//
// # Fulfillment
//
// POST {fulfillment_path} accepts the assistant's intent envelope and
// dispatches on the first input's intent:
//   - action.devices.SYNC: lists openHAB items and translates them to devices
//   - action.devices.QUERY: translates the current state of each device
//   - action.devices.EXECUTE: translates commands into item writes
//   - action.devices.DISCONNECT: acknowledges account unlinking
//
// The bearer token of the assistant request is forwarded to openHAB, which
// performs its own authorisation. A failure on one device is reported for
// that device only; the others are still answered.
//
// POST {fulfillment_path}/reportstate takes {uid, items} and pushes the
// translated states of every device among the items to HomeGraph.
//
// # Operator API
//
//	GET /api/v1/health   component health
//	GET /api/v1/metrics  runtime and intent counters
//	GET /api/v1/audit    execute audit log
package api
