// Package config provides configuration management for Freqtrade.
// This file centralizes the default ports for the engine's own
// services to avoid magic numbers scattered across setDefaults.
package config

// Default ports for the engine's own services.
const (
	// APIServerPort is the default port for the control API (internal/api).
	APIServerPort = 8081

	// PrometheusPort is the default port the metrics server exposes
	// /metrics and /health on (internal/metrics.Server).
	PrometheusPort = 9100

	// VaultPort is the default port for HashiCorp Vault, used only in
	// documentation/ops scripts; the client itself reads VAULT_ADDR.
	VaultPort = 8200
)
