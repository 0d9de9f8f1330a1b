package chromasearch

import (
	"net/http"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	BaseURL  string        `default:"http://localhost:8000" validate:"required,url"`
	Tenant   string        `default:"default_tenant" validate:"required"`
	Database string        `default:"default_database" validate:"required"`
	APIKey   string        `validate:"-"`
	Timeout  time.Duration `default:"30s" validate:"min=0"`
	Retries  uint          `default:"3" validate:"max=10"`

	httpClient *http.Client
	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func newClientConfig(opts []Option) (*clientConfig, error) {
	cfg := &clientConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "apply config defaults")
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid client config")
	}
	return cfg, nil
}

// WithBaseURL sets the server base URL. Defaults to http://localhost:8000.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) { c.BaseURL = url })
}

// WithTenant sets the tenant name. Defaults to "default_tenant".
func WithTenant(tenant string) Option {
	return optionFunc(func(c *clientConfig) { c.Tenant = tenant })
}

// WithDatabase sets the database name. Defaults to "default_database".
func WithDatabase(database string) Option {
	return optionFunc(func(c *clientConfig) { c.Database = database })
}

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) { c.APIKey = key })
}

// WithTimeout sets the per-request timeout. Defaults to 30s; zero disables it.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) { c.Timeout = d })
}

// WithRetries sets the retry attempts for transient transport failures.
// Defaults to 3; zero disables retrying.
func WithRetries(n uint) Option {
	return optionFunc(func(c *clientConfig) { c.Retries = n })
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) { c.httpClient = hc })
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) { c.logger = l })
}

// WithMetrics registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) { c.metricsReg = reg })
}
