// Package chargetrip talks to the Chargetrip GraphQL API for charging
// stations and the EV catalog.
package chargetrip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"ev-route-service/internal/adapters/rest"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultEndpoint = "https://api.chargetrip.io/graphql"

type Client struct {
	rest     *rest.Client
	endpoint string
}

func NewClient(clientID, appID, endpoint string) (*Client, error) {
	if clientID == "" || appID == "" {
		return nil, errors.New("chargetrip client id and app id are required")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	headers := http.Header{}
	headers.Set("x-client-id", clientID)
	headers.Set("x-app-id", appID)

	return &Client{
		rest:     rest.NewClient(15*time.Second, headers),
		endpoint: endpoint,
	}, nil
}

func (c *Client) SetRetryBackoff(d time.Duration) { c.rest.InitialBackoff = d }

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query posts a GraphQL document and decodes the data field into out.
// With retry false the request is sent exactly once.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any, retry bool) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	makeReq := func() (*http.Request, error) {
		return c.rest.NewRequest(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	}

	var resp *http.Response
	if retry {
		resp, err = c.rest.DoWithRetry(ctx, makeReq)
	} else {
		var req *http.Request
		if req, err = makeReq(); err == nil {
			resp, err = c.rest.Do(req)
		}
	}
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}

	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}

	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return errors.New("graphql response has no data")
	}

	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}

	return nil
}
