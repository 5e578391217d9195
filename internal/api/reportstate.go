package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/openhab-ghome/internal/audit"
	"github.com/nerrad567/openhab-ghome/internal/device"
)

// handleReportState translates the posted items and pushes the states of
// those that are devices to HomeGraph. Items that fail to translate are
// skipped and logged.
func (s *Server) handleReportState(w http.ResponseWriter, r *http.Request) {
	if s.reporter == nil {
		writeUnavailable(w, "report state not configured")
		return
	}

	var req ReportStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.UID == "" {
		writeBadRequest(w, "uid is required")
		return
	}
	s.counters.reportState.Add(1)

	deviceIDs := device.DeviceIDs(req.Items)

	states := make(map[string]device.State)
	for _, it := range req.Items {
		if _, ok := deviceIDs[it.Name]; !ok {
			continue
		}
		st, err := device.TranslateState(it)
		if err != nil {
			s.counters.deviceErrors.Add(1)
			s.logger.Warn("report state: translation failed", "device_id", it.Name, "error", err)
			continue
		}
		states[it.Name] = st
		s.recordState(it.Name, st)
	}

	entry := &audit.AuditLog{
		Action:      audit.ActionReportState,
		EntityType:  "agent",
		EntityID:    req.UID,
		AgentUserID: req.UID,
		Details:     map[string]any{"devices": len(states)},
	}

	requestID, err := s.reporter.ReportState(r.Context(), req.UID, states)
	if err != nil {
		s.counters.requestErrors.Add(1)
		s.logger.Error("report state failed", "agent_user_id", req.UID, "error", err)
		entry.Status = audit.StatusError
		entry.Details["error"] = err.Error()
		s.auditLog(entry)
		writeJSON(w, http.StatusInternalServerError, ReportStateResponse{
			Status:    StatusError,
			Devices:   len(states),
			ErrorCode: err.Error(),
		})
		return
	}

	entry.RequestID = requestID
	s.auditLog(entry)
	writeJSON(w, http.StatusOK, ReportStateResponse{
		Status:    StatusSuccess,
		RequestID: requestID,
		Devices:   len(states),
	})
}
