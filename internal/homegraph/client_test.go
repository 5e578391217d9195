package homegraph

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/openhab-ghome/internal/device"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/config"
)

// testServiceAccount returns service account JSON with a freshly generated key.
func testServiceAccount(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "openhab-test",
		"private_key_id": "kid-1",
		"private_key":    string(keyPEM),
		"client_email":   "bridge@openhab-test.iam.gserviceaccount.com",
		"token_uri":      "https://oauth2.example.invalid/token",
	})
	require.NoError(t, err)
	return data, key
}

// fakeGoogle serves the OAuth token and report-state endpoints.
type fakeGoogle struct {
	t   *testing.T
	key *rsa.PrivateKey

	mu          sync.Mutex
	tokenCalls  int
	reports     []Report
	reportAuth  string
	reportCode  int
	tokenStatus int
}

func (f *fakeGoogle) recorded() (reports []Report, auth string, tokenCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Report(nil), f.reports...), f.reportAuth, f.tokenCalls
}

func (f *fakeGoogle) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokenCalls++
		status := f.tokenStatus
		f.mu.Unlock()

		if status != 0 {
			http.Error(w, `{"error":"invalid_grant"}`, status)
			return
		}

		assert.NoError(f.t, r.ParseForm())
		assert.Equal(f.t, jwtBearerGrant, r.PostForm.Get("grant_type"))

		claims := &assertionClaims{}
		_, err := jwt.ParseWithClaims(r.PostForm.Get("assertion"), claims, func(tok *jwt.Token) (any, error) {
			assert.Equal(f.t, "kid-1", tok.Header["kid"])
			return &f.key.PublicKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		assert.NoError(f.t, err)
		assert.Equal(f.t, homegraphScope, claims.Scope)
		assert.Equal(f.t, "bridge@openhab-test.iam.gserviceaccount.com", claims.Issuer)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"ya29.test","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		var report Report
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&report))

		f.mu.Lock()
		f.reports = append(f.reports, report)
		f.reportAuth = r.Header.Get("Authorization")
		code := f.reportCode
		f.mu.Unlock()

		if code != 0 {
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"Requested entity was not found."}}`)
			return
		}
		_, _ = io.WriteString(w, `{"requestId":"`+report.RequestID+`"}`)
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeGoogle) {
	t.Helper()
	data, key := testServiceAccount(t)
	fake := &fakeGoogle{t: t, key: key}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	sa, err := ParseServiceAccount(data)
	require.NoError(t, err)

	client, err := New(config.HomeGraphConfig{
		Enabled:  true,
		Endpoint: srv.URL + "/report",
		TokenURL: srv.URL + "/token",
		Timeout:  5,
	}, sa)
	require.NoError(t, err)
	return client, fake
}

func TestReportState(t *testing.T) {
	client, fake := newTestClient(t)
	on := true
	states := map[string]device.State{"Lamp": {Online: true, On: &on}}

	requestID, err := client.ReportState(context.Background(), "agent-1", states)
	require.NoError(t, err)
	assert.NotEmpty(t, requestID)

	reports, auth, _ := fake.recorded()
	require.Len(t, reports, 1)
	report := reports[0]
	assert.Equal(t, requestID, report.RequestID)
	assert.Equal(t, "agent-1", report.AgentUserID)
	require.Contains(t, report.Payload.Devices.States, "Lamp")
	assert.True(t, *report.Payload.Devices.States["Lamp"].On)
	assert.Equal(t, "Bearer ya29.test", auth)
}

func TestReportState_TokenCached(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	first, err := client.ReportState(ctx, "agent-1", map[string]device.State{})
	require.NoError(t, err)
	second, err := client.ReportState(ctx, "agent-1", map[string]device.State{})
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "request ids must be unique")
	_, _, calls := fake.recorded()
	assert.Equal(t, 1, calls)

	client.tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = client.ReportState(ctx, "agent-1", map[string]device.State{})
	require.NoError(t, err)
	_, _, calls = fake.recorded()
	assert.Equal(t, 2, calls)
}

func TestReportState_Errors(t *testing.T) {
	t.Run("token rejected", func(t *testing.T) {
		client, fake := newTestClient(t)
		fake.tokenStatus = http.StatusBadRequest

		_, err := client.ReportState(context.Background(), "agent-1", nil)
		assert.ErrorIs(t, err, ErrTokenExchange)
		reports, _, _ := fake.recorded()
		assert.Empty(t, reports)
	})

	t.Run("report rejected", func(t *testing.T) {
		client, fake := newTestClient(t)
		fake.reportCode = http.StatusNotFound

		_, err := client.ReportState(context.Background(), "agent-1", nil)
		assert.ErrorIs(t, err, ErrReportFailed)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestParseServiceAccount(t *testing.T) {
	valid, _ := testServiceAccount(t)

	sa, err := ParseServiceAccount(valid)
	require.NoError(t, err)
	assert.Equal(t, "openhab-test", sa.ProjectID)
	assert.NotNil(t, sa.key)

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"no email", `{"private_key":"x"}`},
		{"no key", `{"client_email":"a@b"}`},
		{"bad pem", `{"client_email":"a@b","private_key":"not a key"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseServiceAccount([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidServiceAccount)
		})
	}
}

func TestConnect(t *testing.T) {
	_, err := Connect(config.HomeGraphConfig{})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = Connect(config.HomeGraphConfig{Enabled: true, ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	data, _ := testServiceAccount(t)
	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	client, err := Connect(config.HomeGraphConfig{Enabled: true, ServiceAccountFile: path, Endpoint: "https://example.invalid"})
	require.NoError(t, err)
	assert.Equal(t, "https://oauth2.example.invalid/token", client.tokens.tokenURL)
}
