package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/openhab-ghome/internal/audit"
	"github.com/nerrad567/openhab-ghome/internal/device"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/config"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/influxdb"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/logging"
	"github.com/nerrad567/openhab-ghome/internal/item"
	"github.com/nerrad567/openhab-ghome/internal/openhab"
)

// testItems is the openHAB item graph shared by the fulfillment tests.
func testItems() []item.Item {
	return []item.Item{
		{Name: "Lamp", Label: "Desk Lamp", Type: "Switch", State: "ON", Tags: []string{"Lighting"}},
		{Name: "Dim", Label: "Ceiling", Type: "Dimmer", State: "40", Tags: []string{"Lighting"}},
		{
			Name:  "LivingThermostat",
			Label: "Living Room Thermostat",
			Type:  "Group",
			Tags:  []string{"Thermostat"},
			Members: []item.Item{
				{Name: "LivingTemp", Type: "Number:Temperature", State: "20.5", Tags: []string{"CurrentTemperature"}, GroupNames: []string{"LivingThermostat"}},
				{Name: "LivingTarget", Type: "Number:Temperature", State: "21", Tags: []string{"TargetTemperature"}, GroupNames: []string{"LivingThermostat"}},
				{Name: "LivingMode", Type: "String", State: "cool", Tags: []string{"homekit:HeatingCoolingMode"}, GroupNames: []string{"LivingThermostat"}},
				{Name: "LivingHumidity", Type: "Number", State: "45", Tags: []string{"CurrentHumidity"}, GroupNames: []string{"LivingThermostat"}},
			},
		},
		{Name: "Broken", Label: "Broken", Type: "Dimmer", State: "bright", Tags: []string{"Lighting"}},
		{Name: "Plain", Label: "Plain", Type: "String", State: "hello"},
	}
}

type fakeItems struct {
	mu     sync.Mutex
	uid    string
	items  []item.Item
	err    error
	tokens []string
}

func (f *fakeItems) seen(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
}

func (f *fakeItems) GetItems(_ context.Context, token string) ([]item.Item, error) {
	f.seen(token)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeItems) GetItem(_ context.Context, token, name string) (*item.Item, error) {
	f.seen(token)
	if f.err != nil {
		return nil, f.err
	}
	for _, it := range f.items {
		if it.Name == name {
			found := it
			return &found, nil
		}
	}
	return nil, fmt.Errorf("getting item %s: %w", name, openhab.ErrItemNotFound)
}

func (f *fakeItems) GetUID(_ context.Context, token string) (string, error) {
	f.seen(token)
	if f.err != nil {
		return "", f.err
	}
	return f.uid, nil
}

type sentCommand struct {
	token, item, value string
}

type fakeCommands struct {
	mu   sync.Mutex
	sent []sentCommand
	errs map[string]error
}

func (f *fakeCommands) SendCommand(_ context.Context, token, itemName, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[itemName]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentCommand{token, itemName, value})
	return nil
}

type fakeReporter struct {
	mu     sync.Mutex
	agent  string
	states map[string]device.State
	err    error
}

func (f *fakeReporter) ReportState(_ context.Context, agentUserID string, states map[string]device.State) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agent = agentUserID
	f.states = states
	if f.err != nil {
		return "", f.err
	}
	return "rs-1", nil
}

type fakeTelemetry struct {
	mu       sync.Mutex
	commands []influxdb.CommandPoint
	states   map[string]map[string]any
}

func (f *fakeTelemetry) WriteCommand(p influxdb.CommandPoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, p)
}

func (f *fakeTelemetry) WriteDeviceState(deviceID string, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states == nil {
		f.states = make(map[string]map[string]any)
	}
	f.states[deviceID] = fields
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	created []*audit.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, log *audit.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, log)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _ audit.Filter) (*audit.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	logs := make([]audit.AuditLog, 0, len(f.created))
	for _, l := range f.created {
		logs = append(logs, *l)
	}
	return &audit.ListResult{Logs: logs, Total: len(logs), Limit: 50}, nil
}

type fixture struct {
	srv       *Server
	handler   http.Handler
	items     *fakeItems
	commands  *fakeCommands
	reporter  *fakeReporter
	telemetry *fakeTelemetry
}

// newFixture builds a server over fakes. Audit entries stay queued on the
// server's channel so tests can inspect them with queuedAudit.
func newFixture(t *testing.T, mutate ...func(*Deps)) *fixture {
	t.Helper()

	f := &fixture{
		items:     &fakeItems{uid: "uid-1", items: testItems()},
		commands:  &fakeCommands{errs: map[string]error{}},
		reporter:  &fakeReporter{},
		telemetry: &fakeTelemetry{},
	}

	deps := Deps{
		Config:    config.APIConfig{FulfillmentPath: "/smarthome"},
		Logger:    logging.Discard(),
		Items:     f.items,
		Commands:  f.commands,
		Reporter:  f.reporter,
		Telemetry: f.telemetry,
		AuditRepo: &fakeAuditRepo{},
		Version:   "test",
	}
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	f.srv = srv
	f.handler = srv.Handler()
	return f
}

// queuedAudit removes and returns every entry waiting on the audit channel.
func (f *fixture) queuedAudit() []*audit.AuditLog {
	var entries []*audit.AuditLog
	for {
		select {
		case e := <-f.srv.auditCh:
			entries = append(entries, e)
		default:
			return entries
		}
	}
}

func (f *fixture) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// intent posts a fulfillment request with a bearer token.
func (f *fixture) intent(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/smarthome", body, map[string]string{"Authorization": "Bearer tok"})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}
