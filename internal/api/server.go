package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/openhab-ghome/internal/audit"
	"github.com/nerrad567/openhab-ghome/internal/device"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/config"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/influxdb"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/logging"
	"github.com/nerrad567/openhab-ghome/internal/item"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ItemSource reads items from openHAB on behalf of the token holder.
type ItemSource interface {
	GetItems(ctx context.Context, token string) ([]item.Item, error)
	GetItem(ctx context.Context, token, name string) (*item.Item, error)
	GetUID(ctx context.Context, token string) (string, error)
}

// CommandWriter delivers a raw command value to an item. Both the openHAB
// REST client and the MQTT command publisher satisfy it.
type CommandWriter interface {
	SendCommand(ctx context.Context, token, itemName, value string) error
}

// StateReporter pushes device states to HomeGraph.
type StateReporter interface {
	ReportState(ctx context.Context, agentUserID string, states map[string]device.State) (string, error)
}

// Telemetry records command and state points.
type Telemetry interface {
	WriteCommand(p influxdb.CommandPoint)
	WriteDeviceState(deviceID string, fields map[string]any)
}

// HealthChecker is implemented by every infrastructure client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Logger    *logging.Logger
	Items     ItemSource
	Commands  CommandWriter
	Reporter  StateReporter    // optional: report state answers 503 without it
	Telemetry Telemetry        // optional
	AuditRepo audit.Repository // optional
	Health    map[string]HealthChecker
	Version   string
}

// Server is the fulfillment HTTP server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	items     ItemSource
	commands  CommandWriter
	reporter  StateReporter
	telemetry Telemetry
	auditRepo audit.Repository
	auditCh   chan *audit.AuditLog
	health    map[string]HealthChecker
	version   string
	startTime time.Time
	counters  intentCounters

	server *http.Server
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Items == nil {
		return nil, fmt.Errorf("item source is required")
	}
	if deps.Commands == nil {
		return nil, fmt.Errorf("command writer is required")
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger.Component("api"),
		items:     deps.Items,
		commands:  deps.Commands,
		reporter:  deps.Reporter,
		telemetry: deps.Telemetry,
		auditRepo: deps.AuditRepo,
		health:    deps.Health,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if s.cfg.FulfillmentPath == "" {
		s.cfg.FulfillmentPath = "/smarthome"
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}
	return s, nil
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start launches the audit drain and the HTTP listener in the background.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditCh != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.drainAuditLog(srvCtx)
		}()
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close stops accepting requests, waits up to 10 seconds for in-flight ones,
// then flushes queued audit entries.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
