package cockpit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/foomo/cockpitsource/content"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const headerToken = "Cockpit-Token"

type (
	HTTPClient struct {
		l           *zap.Logger
		host        string
		accessToken string
		httpClient  *http.Client
		concurrency int
	}
	HTTPClientOption func(*HTTPClient)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewHTTPClient(l *zap.Logger, host string, opts ...HTTPClientOption) *HTTPClient {
	inst := &HTTPClient{
		l:           l.Named("cockpit"),
		host:        strings.TrimRight(host, "/"),
		httpClient:  http.DefaultClient,
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func HTTPClientWithAccessToken(v string) HTTPClientOption {
	return func(o *HTTPClient) {
		o.accessToken = v
	}
}

func HTTPClientWithHTTPClient(v *http.Client) HTTPClientOption {
	return func(o *HTTPClient) {
		o.httpClient = v
	}
}

func HTTPClientWithConcurrency(v int) HTTPClientOption {
	return func(o *HTTPClient) {
		o.concurrency = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (c *HTTPClient) CollectionNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/api/collections/listCollections", &names); err != nil {
		return nil, errors.Wrap(err, "failed to list collections")
	}
	return names, nil
}

func (c *HTTPClient) Collections(ctx context.Context) ([]*content.Collection, error) {
	names, err := c.CollectionNames(ctx)
	if err != nil {
		return nil, err
	}
	return c.each(ctx, names, c.collection)
}

func (c *HTTPClient) RegionNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/api/regions/listRegions", &names); err != nil {
		return nil, errors.Wrap(err, "failed to list regions")
	}
	return names, nil
}

func (c *HTTPClient) Regions(ctx context.Context) ([]*content.Collection, error) {
	names, err := c.RegionNames(ctx)
	if err != nil {
		return nil, err
	}
	return c.each(ctx, names, c.region)
}

func (c *HTTPClient) Assets(ctx context.Context) ([]content.AssetPath, error) {
	var resp struct {
		Assets []content.AssetPath `json:"assets"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cockpit/assets", &resp); err != nil {
		return nil, errors.Wrap(err, "failed to list assets")
	}
	return resp.Assets, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// each loads the named items concurrently, the result keeps the order of names
func (c *HTTPClient) each(ctx context.Context, names []string, load func(context.Context, string) (*content.Collection, error)) ([]*content.Collection, error) {
	ret := make([]*content.Collection, len(names))
	g, gCtx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			col, err := load(gCtx, name)
			if err != nil {
				return err
			}
			ret[i] = col
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *HTTPClient) collection(ctx context.Context, name string) (*content.Collection, error) {
	var resp struct {
		Fields  content.Fields  `json:"fields"`
		Entries []content.Entry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/collections/get/"+url.PathEscape(name), &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get collection %q", name)
	}
	c.l.Debug("loaded collection", zap.String("collection", name), zap.Int("entries", len(resp.Entries)))
	return &content.Collection{
		Name:    name,
		Fields:  resp.Fields,
		Entries: resp.Entries,
	}, nil
}

func (c *HTTPClient) region(ctx context.Context, name string) (*content.Collection, error) {
	var schema struct {
		Fields content.Fields `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/regions/region/"+url.PathEscape(name), &schema); err != nil {
		return nil, errors.Wrapf(err, "failed to get region %q", name)
	}
	var data content.Entry
	if err := c.do(ctx, http.MethodGet, "/api/regions/data/"+url.PathEscape(name), &data); err != nil {
		return nil, errors.Wrapf(err, "failed to get data of region %q", name)
	}
	if data == nil {
		data = content.Entry{}
	}
	return &content.Collection{
		Name:    name,
		Fields:  schema.Fields,
		Entries: []content.Entry{data},
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, v interface{}) error {
	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader([]byte("{}"))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set(headerToken, c.accessToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("bad response code %q from cockpit", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
