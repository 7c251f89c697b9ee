// Package remote holds the HTTP client for the quarantine API. It maps HTTP calls to Go methods and nothing more.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/rwx-research/flakeguard"
	"github.com/rwx-research/flakeguard/internal/backend"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/quarantine"
	"github.com/rwx-research/flakeguard/internal/repo"
)

// Client is the client for the quarantine API.
type Client struct {
	ClientConfig
	RoundTrip func(*http.Request) (*http.Response, error)
}

// NewClient is the preferred constructor for the API client. It makes sure that the configuration is valid & necessary
// defaults are applied.
func NewClient(cfg ClientConfig) (Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return Client{}, err
	}

	client := &http.Client{Timeout: cfg.Timeout}

	roundTrip := func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "https"
		if cfg.Insecure {
			req.URL.Scheme = "http"
		}

		req.URL.Host = cfg.Host
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cfg.Token))
		req.Header.Set("User-Agent", fmt.Sprintf("flakeguard/%s", strings.TrimPrefix(flakeguard.Version, "v")))

		if cfg.Debug {
			hasBody := req.Body != nil
			dump, _ := httputil.DumpRequest(req, hasBody)
			sanitizedDump := bearerTokenRegexp.ReplaceAll(dump, []byte("<redacted>"))
			cfg.Log.Debugf("Executing following HTTP request:\n\n%s\n", sanitizedDump)
		}

		resp, err := client.Do(req)
		if err != nil {
			return resp, errors.NewSystemError("unable to perform HTTP request to %q: %s", req.URL, err)
		}

		if cfg.Debug {
			dump, _ := httputil.DumpResponse(resp, true)
			sanitizedDump := setCookieHeaderRegexp.ReplaceAll(dump, []byte("Set-Cookie: <redacted>"))
			cfg.Log.Debugf("Received following response:\n\n%s\n", sanitizedDump)
		}

		return resp, nil
	}

	return Client{cfg, roundTrip}, nil
}

type getQuarantineConfigRequest struct {
	Repo            repo.Info      `json:"repo"`
	OrgURLSlug      string         `json:"orgUrlSlug"`
	TestIdentifiers []backend.Test `json:"testIdentifiers"`
	RemoteURLs      []string       `json:"remoteUrls,omitempty"`
}

type getQuarantineConfigResponse struct {
	IsDisabled bool     `json:"isDisabled"`
	TestIDs    []string `json:"testIds"`
}

// GetQuarantineConfig asks the API which of the given tests are quarantined in the repository.
func (c Client) GetQuarantineConfig(ctx context.Context, req quarantine.FetchRequest) (quarantine.Config, error) {
	endpoint := quarantineConfigEndpoint

	resp, err := c.postJSON(ctx, endpoint, getQuarantineConfigRequest{
		Repo:            req.Repo,
		OrgURLSlug:      req.OrgSlug,
		TestIdentifiers: backend.Tests(req.TestIDs),
		RemoteURLs:      req.RemoteURLs,
	})
	if err != nil {
		return quarantine.Config{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return quarantine.Config{}, errors.NewInternalError(
			"API backend encountered an error. Endpoint was %q, Status Code %d",
			endpoint,
			resp.StatusCode,
		)
	}

	respBody := getQuarantineConfigResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return quarantine.Config{}, errors.NewInternalError(
			"unable to parse the response body. Endpoint was %q, Content-Type %q. Original Error: %s",
			endpoint,
			resp.Header.Get(headerContentType),
			err,
		)
	}

	quarantinedIDs := make(map[string]struct{}, len(respBody.TestIDs))
	for _, id := range respBody.TestIDs {
		quarantinedIDs[id] = struct{}{}
	}

	return quarantine.Config{IsDisabled: respBody.IsDisabled, QuarantinedIDs: quarantinedIDs}, nil
}

func (c Client) postJSON(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	encodedBody, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewInternalError("unable to construct JSON object for request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(encodedBody))
	if err != nil {
		return nil, errors.NewInternalError("unable to construct HTTP request: %s", err)
	}

	req.Header.Set(headerContentType, contentTypeJSON)

	resp, err := c.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}
