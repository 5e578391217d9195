package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/nerrad567/openhab-ghome/internal/audit"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/mqtt"
	"github.com/nerrad567/openhab-ghome/internal/openhab"
)

func TestFulfillment_RequestValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		auth       string
		wantStatus int
	}{
		{"missing token", `{"requestId":"r1","inputs":[{"intent":"action.devices.SYNC"}]}`, "", http.StatusUnauthorized},
		{"basic auth", `{"requestId":"r1","inputs":[{"intent":"action.devices.SYNC"}]}`, "Basic abc", http.StatusUnauthorized},
		{"invalid json", `{`, "Bearer tok", http.StatusBadRequest},
		{"no inputs", `{"requestId":"r1","inputs":[]}`, "Bearer tok", http.StatusBadRequest},
		{"unknown intent", `{"requestId":"r1","inputs":[{"intent":"action.devices.NOPE"}]}`, "Bearer tok", http.StatusBadRequest},
		{"query without payload", `{"requestId":"r1","inputs":[{"intent":"action.devices.QUERY"}]}`, "Bearer tok", http.StatusBadRequest},
		{"execute bad payload", `{"requestId":"r1","inputs":[{"intent":"action.devices.EXECUTE","payload":{"commands":"x"}}]}`, "Bearer tok", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			header := map[string]string{}
			if tt.auth != "" {
				header["Authorization"] = tt.auth
			}
			rec := f.do(t, http.MethodPost, "/smarthome", tt.body, header)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestSync(t *testing.T) {
	f := newFixture(t)

	rec := f.intent(t, `{"requestId":"sync-1","inputs":[{"intent":"action.devices.SYNC"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		RequestID string `json:"requestId"`
		Payload   struct {
			AgentUserID string `json:"agentUserId"`
			Devices     []struct {
				ID     string   `json:"id"`
				Type   string   `json:"type"`
				Traits []string `json:"traits"`
			} `json:"devices"`
		} `json:"payload"`
	}
	decodeBody(t, rec, &resp)

	if resp.RequestID != "sync-1" || resp.Payload.AgentUserID != "uid-1" {
		t.Errorf("requestId = %q, agentUserId = %q", resp.RequestID, resp.Payload.AgentUserID)
	}

	wantIDs := []string{"Lamp", "Dim", "LivingThermostat", "Broken"}
	if len(resp.Payload.Devices) != len(wantIDs) {
		t.Fatalf("devices = %+v, want ids %v", resp.Payload.Devices, wantIDs)
	}
	for i, id := range wantIDs {
		if resp.Payload.Devices[i].ID != id {
			t.Errorf("devices[%d].id = %q, want %q", i, resp.Payload.Devices[i].ID, id)
		}
	}
	if resp.Payload.Devices[2].Type != "action.devices.types.THERMOSTAT" {
		t.Errorf("thermostat type = %q", resp.Payload.Devices[2].Type)
	}

	for _, tok := range f.items.tokens {
		if tok != "tok" {
			t.Errorf("openHAB saw token %q, want tok", tok)
		}
	}

	entries := f.queuedAudit()
	if len(entries) != 1 || entries[0].Action != audit.ActionSync || entries[0].AgentUserID != "uid-1" {
		t.Errorf("audit = %+v", entries)
	}
	if got := f.srv.counters.snapshot().Sync; got != 1 {
		t.Errorf("sync counter = %d, want 1", got)
	}
}

func TestSync_Failure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unauthorised", openhab.ErrUnauthorised, "authFailure"},
		{"openhab down", fmt.Errorf("listing items: %w", openhab.ErrUnexpectedStatus), "transientError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.items.err = tt.err

			rec := f.intent(t, `{"requestId":"sync-2","inputs":[{"intent":"action.devices.SYNC"}]}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}

			var resp struct {
				RequestID string `json:"requestId"`
				Payload   struct {
					ErrorCode string `json:"errorCode"`
				} `json:"payload"`
			}
			decodeBody(t, rec, &resp)
			if resp.RequestID != "sync-2" || resp.Payload.ErrorCode != tt.wantCode {
				t.Errorf("response = %+v, want errorCode %s", resp, tt.wantCode)
			}
		})
	}
}

func TestQuery(t *testing.T) {
	f := newFixture(t)

	rec := f.intent(t, `{"requestId":"q1","inputs":[{"intent":"action.devices.QUERY","payload":{"devices":[
		{"id":"Lamp"},{"id":"Dim"},{"id":"LivingThermostat"},{"id":"Missing"},{"id":"Broken"}]}}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		RequestID string `json:"requestId"`
		Payload   struct {
			Devices map[string]map[string]any `json:"devices"`
		} `json:"payload"`
	}
	decodeBody(t, rec, &resp)
	devices := resp.Payload.Devices

	tests := []struct {
		id   string
		want map[string]any
	}{
		{"Lamp", map[string]any{"online": true, "on": true, "status": "SUCCESS"}},
		{"Dim", map[string]any{"online": true, "on": true, "brightness": float64(40), "status": "SUCCESS"}},
		{"LivingThermostat", map[string]any{
			"online":                        true,
			"thermostatMode":                "cool",
			"thermostatTemperatureAmbient":  20.5,
			"thermostatTemperatureSetpoint": float64(21),
			"thermostatHumidityAmbient":     float64(45),
			"status":                        "SUCCESS",
		}},
		{"Missing", map[string]any{"status": "ERROR", "errorCode": "deviceNotFound"}},
		{"Broken", map[string]any{"status": "ERROR", "errorCode": "hardError"}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := devices[tt.id]
			if !ok {
				t.Fatalf("device %s missing from %v", tt.id, devices)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s[%s] = %v, want %v", tt.id, k, got[k], v)
				}
			}
		})
	}

	if _, ok := devices["Lamp"]["errorCode"]; ok {
		t.Error("successful device must not carry errorCode")
	}
	if f.telemetry.states["Lamp"]["on"] != true {
		t.Errorf("telemetry state for Lamp = %v", f.telemetry.states["Lamp"])
	}
	if _, ok := f.telemetry.states["Missing"]; ok {
		t.Error("failed device recorded in telemetry")
	}
	if got := f.srv.counters.snapshot().DeviceErrors; got != 2 {
		t.Errorf("device errors = %d, want 2", got)
	}
}

type executeResponse struct {
	RequestID string `json:"requestId"`
	Payload   struct {
		Commands []struct {
			IDs       []string       `json:"ids"`
			Status    string         `json:"status"`
			States    map[string]any `json:"states"`
			ErrorCode string         `json:"errorCode"`
		} `json:"commands"`
	} `json:"payload"`
}

func TestExecute(t *testing.T) {
	f := newFixture(t)

	rec := f.intent(t, `{"requestId":"e1","inputs":[{"intent":"action.devices.EXECUTE","payload":{"commands":[
		{"devices":[{"id":"Lamp"},{"id":"Dim"}],"execution":[{"command":"action.devices.commands.OnOff","params":{"on":false}}]},
		{"devices":[{"id":"LivingThermostat"}],"execution":[{"command":"action.devices.commands.ThermostatSetMode","params":{"thermostatMode":"heat"}}]},
		{"devices":[{"id":"Dim"}],"execution":[{"command":"action.devices.commands.BrightnessAbsolute","params":{"brightness":150}}]},
		{"devices":[{"id":"Lamp"}],"execution":[{"command":"action.devices.commands.Dock"}]}
	]}}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp executeResponse
	decodeBody(t, rec, &resp)
	results := resp.Payload.Commands
	if len(results) != 5 {
		t.Fatalf("results = %+v, want 5", results)
	}

	tests := []struct {
		id        string
		status    string
		errorCode string
		state     string
		stateVal  any
	}{
		{"Lamp", "SUCCESS", "", "on", false},
		{"Dim", "SUCCESS", "", "on", false},
		{"LivingThermostat", "SUCCESS", "", "online", true},
		{"Dim", "ERROR", "valueOutOfRange", "", nil},
		{"Lamp", "ERROR", "functionNotSupported", "", nil},
	}
	for i, tt := range tests {
		got := results[i]
		if len(got.IDs) != 1 || got.IDs[0] != tt.id || got.Status != tt.status || got.ErrorCode != tt.errorCode {
			t.Errorf("results[%d] = %+v, want %s %s %s", i, got, tt.id, tt.status, tt.errorCode)
			continue
		}
		if tt.state != "" {
			if got.States["online"] != true || got.States[tt.state] != tt.stateVal {
				t.Errorf("results[%d].states = %v", i, got.States)
			}
		} else if got.States != nil {
			t.Errorf("results[%d] error result carries states %v", i, got.States)
		}
	}

	wantSent := []sentCommand{{"tok", "Lamp", "OFF"}, {"tok", "Dim", "OFF"}, {"tok", "LivingMode", "heat"}}
	if len(f.commands.sent) != len(wantSent) {
		t.Fatalf("sent = %+v, want %+v", f.commands.sent, wantSent)
	}
	for i, want := range wantSent {
		if f.commands.sent[i] != want {
			t.Errorf("sent[%d] = %+v, want %+v", i, f.commands.sent[i], want)
		}
	}

	if len(f.telemetry.commands) != 5 {
		t.Errorf("telemetry commands = %d, want 5", len(f.telemetry.commands))
	} else if f.telemetry.commands[3].Status != audit.StatusError {
		t.Errorf("telemetry[3] = %+v", f.telemetry.commands[3])
	}

	entries := f.queuedAudit()
	if len(entries) != 5 {
		t.Fatalf("audit entries = %d, want 5", len(entries))
	}
	if entries[2].EntityID != "LivingThermostat" || entries[2].Details["item"] != "LivingMode" || entries[2].RequestID != "e1" {
		t.Errorf("audit[2] = %+v", entries[2])
	}
	if entries[4].Status != audit.StatusError || entries[4].ErrorCode != "functionNotSupported" {
		t.Errorf("audit[4] = %+v", entries[4])
	}
}

func TestExecute_WriterFailureIsolated(t *testing.T) {
	f := newFixture(t)
	f.commands.errs["Lamp"] = fmt.Errorf("publishing command for Lamp: %w", mqtt.ErrNotConnected)

	rec := f.intent(t, `{"requestId":"e2","inputs":[{"intent":"action.devices.EXECUTE","payload":{"commands":[
		{"devices":[{"id":"Lamp"},{"id":"Dim"}],"execution":[{"command":"action.devices.commands.OnOff","params":{"on":true}}]}
	]}}]}`)

	var resp executeResponse
	decodeBody(t, rec, &resp)
	results := resp.Payload.Commands
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Status != "ERROR" || results[0].ErrorCode != "transientError" {
		t.Errorf("Lamp result = %+v", results[0])
	}
	if results[1].Status != "SUCCESS" {
		t.Errorf("Dim result = %+v", results[1])
	}
}

func TestExecute_MergesExecutionStates(t *testing.T) {
	f := newFixture(t)

	rec := f.intent(t, `{"requestId":"e3","inputs":[{"intent":"action.devices.EXECUTE","payload":{"commands":[
		{"devices":[{"id":"Dim"}],"execution":[
			{"command":"action.devices.commands.OnOff","params":{"on":true}},
			{"command":"action.devices.commands.BrightnessAbsolute","params":{"brightness":30}}
		]}
	]}}]}`)

	var resp executeResponse
	decodeBody(t, rec, &resp)
	if len(resp.Payload.Commands) != 1 {
		t.Fatalf("results = %+v", resp.Payload.Commands)
	}
	states := resp.Payload.Commands[0].States
	if states["on"] != true || states["brightness"] != float64(30) {
		t.Errorf("states = %v", states)
	}
	if len(f.commands.sent) != 2 || f.commands.sent[1].value != "30" {
		t.Errorf("sent = %+v", f.commands.sent)
	}
}

func TestExecute_StopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)

	rec := f.intent(t, `{"requestId":"e4","inputs":[{"intent":"action.devices.EXECUTE","payload":{"commands":[
		{"devices":[{"id":"Dim"}],"execution":[
			{"command":"action.devices.commands.BrightnessAbsolute","params":{}},
			{"command":"action.devices.commands.OnOff","params":{"on":true}}
		]}
	]}}]}`)

	var resp executeResponse
	decodeBody(t, rec, &resp)
	if len(resp.Payload.Commands) != 1 || resp.Payload.Commands[0].ErrorCode != "protocolError" {
		t.Errorf("results = %+v", resp.Payload.Commands)
	}
	if len(f.commands.sent) != 0 {
		t.Errorf("sent = %+v, want none", f.commands.sent)
	}
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t)

	rec := f.intent(t, `{"requestId":"d1","inputs":[{"intent":"action.devices.DISCONNECT"}]}`)
	if rec.Code != http.StatusOK || rec.Body.String() != "{}\n" {
		t.Errorf("response = %d %q", rec.Code, rec.Body.String())
	}

	entries := f.queuedAudit()
	if len(entries) != 1 || entries[0].Action != audit.ActionDisconnect || entries[0].RequestID != "d1" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestFulfillment_WithoutAudit(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.AuditRepo = nil
		d.Telemetry = nil
	})

	rec := f.intent(t, `{"requestId":"e5","inputs":[{"intent":"action.devices.EXECUTE","payload":{"commands":[
		{"devices":[{"id":"Lamp"}],"execution":[{"command":"action.devices.commands.OnOff","params":{"on":true}}]}
	]}}]}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if len(f.commands.sent) != 1 {
		t.Errorf("sent = %+v", f.commands.sent)
	}
}
