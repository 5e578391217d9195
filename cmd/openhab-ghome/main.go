// openhab-ghome serves Google smart-home fulfillment for an openHAB instance.
//
// The default action starts the fulfillment server. The devices and state
// subcommands print what the bridge would report for the current openHAB
// items, which helps when tagging items.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	_ "github.com/nerrad567/openhab-ghome/migrations"

	"github.com/nerrad567/openhab-ghome/internal/api"
	"github.com/nerrad567/openhab-ghome/internal/audit"
	"github.com/nerrad567/openhab-ghome/internal/device"
	"github.com/nerrad567/openhab-ghome/internal/homegraph"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/config"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/database"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/influxdb"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/logging"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/mqtt"
	"github.com/nerrad567/openhab-ghome/internal/openhab"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	tokenFlag := &cli.StringFlag{
		Name:  "token",
		Usage: "openHAB API token",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("OHGHOME_OPENHAB_TOKEN"),
		),
	}

	return &cli.Command{
		Name:    "openhab-ghome",
		Usage:   "Google smart-home fulfillment for openHAB",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config.yaml (defaults and environment only when empty)",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("OHGHOME_CONFIG"),
				),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before the config; missing files are ignored",
			},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "enable debug logs"},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, loadEnvFile(c.String("env-file"))
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the fulfillment server (default)",
				Action: serveAction,
			},
			{
				Name:   "devices",
				Usage:  "print the SYNC device list built from openHAB items",
				Flags:  []cli.Flag{tokenFlag},
				Action: devicesAction,
			},
			{
				Name:      "state",
				Usage:     "print the translated state of one item",
				ArgsUsage: "<item>",
				Flags:     []cli.Flag{tokenFlag},
				Action:    stateAction,
			},
		},
	}
}

// loadEnvFile loads a dotenv file without overriding variables already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.Bool("debug") {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func serveAction(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return run(ctx, cfg)
}

func devicesAction(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	items, err := openhab.New(cfg.OpenHAB).GetItems(ctx, c.String("token"))
	if err != nil {
		return err
	}
	return printJSON(c.Root().Writer, device.BuildDevices(items))
}

func stateAction(ctx context.Context, c *cli.Command) error {
	if c.NArg() != 1 {
		return fmt.Errorf("state takes exactly one item name")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	it, err := openhab.New(cfg.OpenHAB).GetItem(ctx, c.String("token"), c.Args().First())
	if err != nil {
		return err
	}
	state, err := device.TranslateState(*it)
	if err != nil {
		return err
	}
	return printJSON(c.Root().Writer, map[string]any{
		"traits": device.ClassifyTraits(*it),
		"state":  state,
	})
}

func printJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// run starts every configured component and blocks until ctx is cancelled.
// Components are closed in reverse order of start.
func run(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting openhab-ghome",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	ohClient := openhab.New(cfg.OpenHAB)
	health := map[string]api.HealthChecker{"openhab": ohClient}
	log.Info("openHAB client ready", "url", cfg.OpenHAB.URL, "command_transport", cfg.OpenHAB.CommandTransport)

	var auditRepo audit.Repository
	if cfg.Database.Enabled {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		auditRepo = audit.NewSQLiteRepository(db.DB)
		health["database"] = db
		log.Info("audit store ready", "path", cfg.Database.Path)
	} else {
		log.Info("audit store disabled")
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		var err error
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		health["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	var telemetry api.Telemetry
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		telemetry = influxClient
		health["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	var reporter api.StateReporter
	if cfg.HomeGraph.Enabled {
		hg, err := homegraph.Connect(cfg.HomeGraph)
		if err != nil {
			return fmt.Errorf("loading HomeGraph service account: %w", err)
		}
		reporter = hg
		log.Info("report state enabled")
	} else {
		log.Warn("service account not configured, report state unavailable")
	}

	srv, err := api.New(api.Deps{
		Config:    cfg.API,
		Logger:    log,
		Items:     ohClient,
		Commands:  commandWriter(cfg, ohClient, mqttClient),
		Reporter:  reporter,
		Telemetry: telemetry,
		AuditRepo: auditRepo,
		Health:    health,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// commandWriter picks the transport for item commands. MQTT is used only
// when selected and connected; everything else posts to the REST API.
func commandWriter(cfg *config.Config, oh *openhab.Client, mqttClient *mqtt.Client) api.CommandWriter {
	if cfg.OpenHAB.CommandTransport == config.TransportMQTT && mqttClient != nil {
		return mqtt.NewCommandPublisher(mqttClient, mqttClient.Topics(), byte(cfg.MQTT.QoS)) //nolint:gosec // qos validated to 0..2
	}
	return oh
}
