package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/openhab-ghome/internal/audit"
	"github.com/nerrad567/openhab-ghome/internal/device"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/influxdb"
	"github.com/nerrad567/openhab-ghome/internal/item"
)

// handleFulfillment decodes the intent envelope and dispatches on the intent
// of its first input.
func (s *Server) handleFulfillment(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeUnauthorized(w, "missing bearer token")
		return
	}

	var req FulfillmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Inputs) == 0 {
		writeBadRequest(w, "request has no inputs")
		return
	}

	input := req.Inputs[0]
	ctx := r.Context()

	var payload any
	var err error
	switch input.Intent {
	case IntentSync:
		s.counters.sync.Add(1)
		payload, err = s.handleSync(ctx, token, req.RequestID)
	case IntentQuery:
		s.counters.query.Add(1)
		payload, err = s.handleQuery(ctx, token, input.Payload)
	case IntentExecute:
		s.counters.execute.Add(1)
		payload, err = s.handleExecute(ctx, token, req.RequestID, input.Payload)
	case IntentDisconnect:
		s.counters.disconnect.Add(1)
		s.handleDisconnect(ctx, token, req.RequestID)
		writeJSON(w, http.StatusOK, struct{}{})
		return
	default:
		writeBadRequest(w, fmt.Sprintf("unsupported intent %q", input.Intent))
		return
	}

	if err != nil {
		var perr *payloadError
		if errors.As(err, &perr) {
			writeBadRequest(w, perr.Error())
			return
		}
		s.counters.requestErrors.Add(1)
		s.logger.Warn("intent failed",
			"intent", input.Intent,
			"request_id", req.RequestID,
			"error", err,
		)
		payload = ErrorPayload{ErrorCode: googleErrorCode(err)}
	}

	writeJSON(w, http.StatusOK, FulfillmentResponse{RequestID: req.RequestID, Payload: payload})
}

// payloadError marks an input payload that could not be decoded.
type payloadError struct {
	err error
}

func (e *payloadError) Error() string {
	return "invalid payload: " + e.err.Error()
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return &payloadError{err: errors.New("payload missing")}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &payloadError{err: err}
	}
	return nil
}

// handleSync lists every openHAB item and returns the devices among them,
// keyed to the openHAB instance UUID.
func (s *Server) handleSync(ctx context.Context, token, requestID string) (any, error) {
	uid, err := s.items.GetUID(ctx, token)
	if err != nil {
		return nil, err
	}
	items, err := s.items.GetItems(ctx, token)
	if err != nil {
		return nil, err
	}

	devices := device.BuildDevices(items)
	for _, d := range devices {
		s.logger.Debug("adding device", "device_id", d.ID, "type", d.Type)
	}
	s.logger.Info("sync", "agent_user_id", uid, "devices", len(devices))

	s.auditLog(&audit.AuditLog{
		Action:      audit.ActionSync,
		EntityType:  "agent",
		EntityID:    uid,
		AgentUserID: uid,
		RequestID:   requestID,
		Details:     map[string]any{"devices": len(devices)},
	})

	return SyncPayload{AgentUserID: uid, Devices: devices}, nil
}

// handleQuery translates the current state of each requested device.
func (s *Server) handleQuery(ctx context.Context, token string, raw json.RawMessage) (any, error) {
	var p QueryPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	states := make(map[string]QueryState, len(p.Devices))
	for _, ref := range p.Devices {
		st, err := s.queryDevice(ctx, token, ref.ID)
		if err != nil {
			s.counters.deviceErrors.Add(1)
			s.logger.Warn("query failed", "device_id", ref.ID, "error", err)
			states[ref.ID] = QueryState{Status: StatusError, ErrorCode: googleErrorCode(err)}
			continue
		}
		s.recordState(ref.ID, st)
		states[ref.ID] = QueryState{State: st, Status: StatusSuccess}
	}

	return QueryResponsePayload{Devices: states}, nil
}

func (s *Server) queryDevice(ctx context.Context, token, id string) (device.State, error) {
	it, err := s.items.GetItem(ctx, token, id)
	if err != nil {
		return device.State{}, err
	}
	return device.TranslateState(*it)
}

// handleExecute applies every execution of every command to each of its
// devices. Each device yields its own result.
func (s *Server) handleExecute(ctx context.Context, token, requestID string, raw json.RawMessage) (any, error) {
	var p ExecutePayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	lookup := func(name string) (*item.Item, error) {
		return s.items.GetItem(ctx, token, name)
	}

	results := []ExecuteResult{}
	for _, cmd := range p.Commands {
		for _, ref := range cmd.Devices {
			results = append(results, s.executeDevice(ctx, token, requestID, ref.ID, cmd.Execution, lookup))
		}
	}
	return ExecuteResponsePayload{Commands: results}, nil
}

// executeDevice runs the executions for one device in order and stops at the
// first failure. The result states merge those of every successful execution.
func (s *Server) executeDevice(ctx context.Context, token, requestID, id string, execs []device.Execution, lookup device.ItemLookup) ExecuteResult {
	states := device.State{Online: true}

	for _, exec := range execs {
		start := time.Now()
		inst, err := device.TranslateCommand(id, exec, lookup)
		if err == nil && inst.Unsupported {
			err = fmt.Errorf("%w: %s", errFunctionNotSupported, exec.Command)
		}
		if err == nil {
			err = s.commands.SendCommand(ctx, token, inst.ItemName, inst.Value)
		}
		s.recordCommand(requestID, id, exec.Command, inst, err, time.Since(start))

		if err != nil {
			s.counters.deviceErrors.Add(1)
			s.logger.Warn("execute failed",
				"device_id", id,
				"command", exec.Command,
				"error", err,
			)
			return ExecuteResult{IDs: []string{id}, Status: StatusError, ErrorCode: googleErrorCode(err)}
		}

		s.counters.commandsSent.Add(1)
		mergeState(&states, inst.States)
	}

	return ExecuteResult{IDs: []string{id}, Status: StatusSuccess, States: &states}
}

// recordCommand writes the audit entry and telemetry point of one execution.
func (s *Server) recordCommand(requestID, id, command string, inst device.Instruction, err error, took time.Duration) {
	status, code := audit.StatusSuccess, ""
	if err != nil {
		status, code = audit.StatusError, googleErrorCode(err)
	}

	details := map[string]any{"command": command}
	if inst.ItemName != "" {
		details["item"] = inst.ItemName
		details["value"] = inst.Value
	}
	if err != nil {
		details["error"] = err.Error()
	}

	s.auditLog(&audit.AuditLog{
		Action:     audit.ActionExecute,
		EntityType: "device",
		EntityID:   id,
		RequestID:  requestID,
		Status:     status,
		ErrorCode:  code,
		Details:    details,
	})

	if s.telemetry != nil {
		s.telemetry.WriteCommand(influxdb.CommandPoint{
			DeviceID: id,
			Command:  command,
			ItemName: inst.ItemName,
			Value:    inst.Value,
			Status:   status,
			Duration: took,
		})
	}
}

func (s *Server) recordState(id string, st device.State) {
	if s.telemetry != nil {
		s.telemetry.WriteDeviceState(id, stateFields(st))
	}
}

// handleDisconnect acknowledges account unlinking. The bridge keeps no
// per-account state, so only the audit entry remains.
func (s *Server) handleDisconnect(_ context.Context, _ string, requestID string) {
	s.logger.Info("disconnect", "request_id", requestID)
	s.auditLog(&audit.AuditLog{
		Action:     audit.ActionDisconnect,
		EntityType: "agent",
		RequestID:  requestID,
	})
}
