package chromasearch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/kailas-cloud/chromasearch/internal/transport"
)

// Client is the search API entry point, scoped to one tenant and database.
type Client struct {
	transport *transport.Client
	obs       *observer
}

// NewClient creates a Client. Connection details default to a local server;
// see the With* options.
func NewClient(opts ...Option) (*Client, error) {
	cfg, err := newClientConfig(opts)
	if err != nil {
		return nil, err
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{
		transport: transport.New(transport.Config{
			BaseURL:    cfg.BaseURL,
			Tenant:     cfg.Tenant,
			Database:   cfg.Database,
			APIKey:     cfg.APIKey,
			Timeout:    cfg.Timeout,
			Retries:    cfg.Retries,
			HTTPClient: cfg.httpClient,
			Logger:     cfg.logger,
		}),
		obs: obs,
	}, nil
}

// Collection returns a handle for querying the named collection.
func (c *Client) Collection(name string) *Collection {
	return &Collection{name: name, client: c}
}

// Collection queries one collection.
type Collection struct {
	name   string
	client *Client
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Search executes one or more search queries in a single request. The result
// holds one row batch per query, in argument order.
func (c *Collection) Search(ctx context.Context, searches ...Search) (res *SearchResult, err error) {
	start := time.Now()
	defer func() { c.client.obs.observe("search", start, err) }()

	if len(searches) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "at least one search is required")
	}
	payloads := make([]map[string]any, len(searches))
	for i, s := range searches {
		payloads[i] = s.Payload()
	}

	body, err := c.client.transport.Search(ctx, c.name, map[string]any{"searches": payloads})
	if err != nil {
		return nil, errors.WithMessagef(err, "search collection %q", c.name)
	}

	var resp SearchResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	return NewSearchResult(resp)
}
