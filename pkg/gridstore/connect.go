package gridstore

import (
	"net/http"

	"github.com/gridstore/client-go/internal/infra/httptransport"
	"github.com/gridstore/client-go/pkg/logger"
)

// ClientConfig configures a Client connected over the cluster's HTTP
// job API.
type ClientConfig struct {
	// BaseURL is the cluster job API endpoint, e.g. "http://node0:3000".
	BaseURL string

	// HTTPClient overrides the default HTTP client. Optional.
	HTTPClient *http.Client

	// Compression enables gzip encoding of large submit bodies.
	Compression bool

	// Logger for client and transport diagnostics. Optional.
	Logger *logger.Logger
}

// Connect creates a Client speaking the cluster's HTTP job API.
func Connect(cfg ClientConfig) (*Client, error) {
	transport, err := httptransport.New(httptransport.Config{
		BaseURL:     cfg.BaseURL,
		HTTPClient:  cfg.HTTPClient,
		Compression: cfg.Compression,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	opts := []Option{}
	if cfg.Logger != nil {
		opts = append(opts, WithLogger(cfg.Logger))
	}
	return New(transport, opts...)
}
