package config

import (
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "PAYMENT"

// Load builds a Config from defaults, then the YAML file at path (skipped when
// path is empty), then environment variables such as
// PAYMENT_MERCADOPAGO_ACCESS_TOKEN.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AutomaticEnv only resolves keys viper already knows about, so every field
// is registered with its default.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.api_prefix", cfg.Server.APIPrefix)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)

	v.SetDefault("mercadopago.base_url", cfg.MercadoPago.BaseURL)
	v.SetDefault("mercadopago.access_token", cfg.MercadoPago.AccessToken)
	v.SetDefault("mercadopago.notification_url", cfg.MercadoPago.NotificationURL)
	v.SetDefault("mercadopago.success_url", cfg.MercadoPago.SuccessURL)
	v.SetDefault("mercadopago.pending_url", cfg.MercadoPago.PendingURL)
	v.SetDefault("mercadopago.failure_url", cfg.MercadoPago.FailureURL)
	v.SetDefault("mercadopago.currency_id", cfg.MercadoPago.CurrencyID)
	v.SetDefault("mercadopago.timeout", cfg.MercadoPago.Timeout)

	v.SetDefault("outbox.poll_interval", cfg.Outbox.PollInterval)
	v.SetDefault("outbox.batch_size", cfg.Outbox.BatchSize)
}
