package api

import (
	"encoding/json"

	"github.com/nerrad567/openhab-ghome/internal/device"
	"github.com/nerrad567/openhab-ghome/internal/item"
)

// Intent names.
const (
	IntentSync       = "action.devices.SYNC"
	IntentQuery      = "action.devices.QUERY"
	IntentExecute    = "action.devices.EXECUTE"
	IntentDisconnect = "action.devices.DISCONNECT"
)

// Per-device result statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// FulfillmentRequest is the envelope of every intent.
type FulfillmentRequest struct {
	RequestID string  `json:"requestId"`
	Inputs    []Input `json:"inputs"`
}

// Input is one intent with its raw payload, decoded once the intent is known.
type Input struct {
	Intent  string          `json:"intent"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DeviceRef names a device in QUERY and EXECUTE payloads.
type DeviceRef struct {
	ID string `json:"id"`
}

// QueryPayload is the payload of a QUERY input.
type QueryPayload struct {
	Devices []DeviceRef `json:"devices"`
}

// ExecutePayload is the payload of an EXECUTE input.
type ExecutePayload struct {
	Commands []ExecuteCommand `json:"commands"`
}

// ExecuteCommand applies a list of executions to a list of devices.
type ExecuteCommand struct {
	Devices   []DeviceRef        `json:"devices"`
	Execution []device.Execution `json:"execution"`
}

// FulfillmentResponse is the envelope of every intent response.
type FulfillmentResponse struct {
	RequestID string `json:"requestId"`
	Payload   any    `json:"payload"`
}

// SyncPayload answers SYNC.
type SyncPayload struct {
	AgentUserID string          `json:"agentUserId"`
	Devices     []device.Device `json:"devices"`
}

// QueryResponsePayload answers QUERY.
type QueryResponsePayload struct {
	Devices map[string]QueryState `json:"devices"`
}

// QueryState is a device state plus its per-device status.
type QueryState struct {
	device.State
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// ExecuteResponsePayload answers EXECUTE.
type ExecuteResponsePayload struct {
	Commands []ExecuteResult `json:"commands"`
}

// ExecuteResult is the outcome for a set of devices.
type ExecuteResult struct {
	IDs       []string      `json:"ids"`
	Status    string        `json:"status"`
	States    *device.State `json:"states,omitempty"`
	ErrorCode string        `json:"errorCode,omitempty"`
}

// ErrorPayload reports a whole-request failure.
type ErrorPayload struct {
	ErrorCode string `json:"errorCode"`
}

// ReportStateRequest is the body of the report-state endpoint.
type ReportStateRequest struct {
	UID   string      `json:"uid"`
	Items []item.Item `json:"items"`
}

// ReportStateResponse is the result of the report-state endpoint.
type ReportStateResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"requestId,omitempty"`
	Devices   int    `json:"devices"`
	ErrorCode string `json:"errorCode,omitempty"`
}
