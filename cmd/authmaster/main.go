// Command authmaster serves the credential verification facade over HTTP
// and websocket transports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/kbukum/authmaster/auth"
	"github.com/kbukum/authmaster/config"
	"github.com/kbukum/authmaster/internal/api"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/observability"
	"github.com/kbukum/authmaster/server"
)

const serviceName = "authmaster"

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

// Config is the authmaster process configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if version != "" {
		c.Version = version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Auth.ApplyDefaults()
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authmaster: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("Configuration loaded", logger.Fields(
		"environment", cfg.Environment,
		"version", cfg.Version,
		"auth", cfg.Auth.Describe(),
	))

	ctx := context.Background()
	shutdownTelemetry, err := observability.Init(ctx, cfg.Observability, cfg.Name)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	metrics, err := observability.NewAuthMetrics(otel.Meter(cfg.Name))
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	master, err := auth.NewFromConfig(&cfg.Auth,
		auth.WithLogger(log),
		auth.WithMetrics(metrics),
		auth.WithTracer(otel.Tracer(cfg.Name)),
	)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	srv := server.New(cfg.Server, log)
	routes := api.New(master, &cfg.Auth, api.WithLogger(log), api.WithMetrics(metrics))
	routes.Register(srv)
	srv.RegisterHealth(cfg.Name, cfg.Version, master, routes.Sockets())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	sig := waitForSignal()
	log.Info("Received shutdown signal, graceful shutdown starting", logger.Fields(
		"signal", sig.String(),
	))

	routes.Sockets().Shutdown()
	return srv.Stop(ctx)
}

// waitForSignal blocks until SIGINT or SIGTERM.
func waitForSignal() os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	return <-sigCh
}
