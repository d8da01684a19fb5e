// Package client calls the http api exposed by the serve command
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/handler"
	"github.com/foomo/cockpitsource/requests"
	"github.com/foomo/cockpitsource/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Client a cockpitsource client
	Client struct {
		endpoint   string
		httpClient *http.Client
	}
	Option func(*Client)
)

type envelope struct {
	Reply jsoniter.RawMessage `json:"reply"`
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New client for the server listening on endpoint including the base path,
// e.g. "http://localhost:8080/cockpitsource"
func New(endpoint string, opts ...Option) *Client {
	inst := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Client) {
		o.httpClient = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Update tell the server to source cockpit again
func (c *Client) Update(ctx context.Context) (*responses.Update, error) {
	resp := &responses.Update{}
	if err := c.call(ctx, handler.RouteUpdate, struct{}{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetNodes request the nodes matching request
func (c *Client) GetNodes(ctx context.Context, request *requests.Nodes) ([]*content.Node, error) {
	var nodes []*content.Node
	if err := c.call(ctx, handler.RouteGetNodes, request, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetSnapshot raw json of all nodes
func (c *Client) GetSnapshot(ctx context.Context) ([]byte, error) {
	return c.post(ctx, handler.RouteGetSnapshot, nil)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Client) call(ctx context.Context, route handler.Route, request, response interface{}) error {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}
	responseBytes, err := c.post(ctx, route, requestBytes)
	if err != nil {
		return err
	}

	env := envelope{}
	if err := json.Unmarshal(responseBytes, &env); err != nil {
		return errors.Wrap(err, "failed to decode reply")
	}
	if len(env.Reply) > 0 && env.Reply[0] == '{' && route != handler.RouteUpdate {
		replyErr := &responses.Error{}
		if err := json.Unmarshal(env.Reply, replyErr); err == nil && replyErr.Status != 0 {
			return replyErr
		}
	}
	if err := json.Unmarshal(env.Reply, response); err != nil {
		return errors.Wrapf(err, "failed to decode %s reply", route)
	}
	return nil
}

func (c *Client) post(ctx context.Context, route handler.Route, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/"+string(route), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", route)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("non 200 reply: %d", resp.StatusCode)
	}
	return data, nil
}
