// Package config loads service configuration from an optional YAML file and
// PAYMENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	MercadoPago MercadoPagoConfig `yaml:"mercadopago" mapstructure:"mercadopago"`
	Outbox      OutboxConfig      `yaml:"outbox" mapstructure:"outbox"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	APIPrefix       string        `yaml:"api_prefix" mapstructure:"api_prefix"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the payment store. Driver is "sqlite", "postgres" or
// "memory".
type StorageConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

type MercadoPagoConfig struct {
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`
	AccessToken     string        `yaml:"access_token" mapstructure:"access_token"`
	NotificationURL string        `yaml:"notification_url" mapstructure:"notification_url"`
	SuccessURL      string        `yaml:"success_url" mapstructure:"success_url"`
	PendingURL      string        `yaml:"pending_url" mapstructure:"pending_url"`
	FailureURL      string        `yaml:"failure_url" mapstructure:"failure_url"`
	CurrencyID      string        `yaml:"currency_id" mapstructure:"currency_id"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	BatchSize    int           `yaml:"batch_size" mapstructure:"batch_size"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			APIPrefix:       "/api/v1",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "payments.db",
		},
		MercadoPago: MercadoPagoConfig{
			BaseURL:         "https://api.mercadopago.com/checkout/preferences",
			NotificationURL: "http://localhost:5000/api/v1/payments/webhooks/mercadopago",
			CurrencyID:      "BRL",
			Timeout:         10 * time.Second,
		},
		Outbox: OutboxConfig{
			PollInterval: time.Second,
			BatchSize:    50,
		},
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for the %s driver", c.Storage.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}

	if u, err := url.Parse(c.MercadoPago.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("mercadopago.base_url %q is not an absolute URL", c.MercadoPago.BaseURL))
	}
	if c.MercadoPago.Timeout <= 0 {
		errs = append(errs, errors.New("mercadopago.timeout must be positive"))
	}
	if c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("outbox.poll_interval must be positive"))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("outbox.batch_size must be positive"))
	}
	if c.Server.APIPrefix != "" && !strings.HasPrefix(c.Server.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("server.api_prefix %q must start with /", c.Server.APIPrefix))
	}

	return errors.Join(errs...)
}
