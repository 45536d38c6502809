// Package e2e holds smoke tests that run against a deployed server. They
// are skipped unless OWLERY_ADDR points at a live instance.
package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// OWLERY_ADDR is the host:port of the server under test, e.g. "localhost:8080".
	Addr string `envconfig:"OWLERY_ADDR"`
	// E2E_TOKEN_SECRET must match the server's TOKEN_SECRET so the test can
	// mint its own identities.
	TokenSecret string `envconfig:"E2E_TOKEN_SECRET" default:"owlery-dev-secret"`
	// E2E_TIMEOUT_SECONDS bounds each wait on the socket.
	TimeoutSeconds int `envconfig:"E2E_TIMEOUT_SECONDS" default:"5"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
