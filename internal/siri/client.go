package siri

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"forsinka.transitdata.no/internal/logging"
)

// DefaultAPIURL is Entur's public SIRI-ET REST endpoint.
const DefaultAPIURL = "https://api.entur.io/realtime/v1/rest/et"

// Config controls where the feed comes from.
type Config struct {
	// APIURL is polled for SIRI-ET JSON. Ignored when StaticDataPath is set.
	APIURL string
	// RequestorID is sent as the requestorId query parameter so Entur can
	// serve a diff since the previous poll. A fresh ID receives the full
	// dataset on the first request.
	RequestorID string
	// StaticDataPath, when set, reads a downloaded feed dump (optionally
	// gzip-compressed) instead of polling the API.
	StaticDataPath string
}

// Client fetches SIRI-ET snapshots from the configured source.
type Client struct {
	config     Config
	httpClient *http.Client
}

// newFeedHTTPClient builds a dedicated HTTP client with explicit timeouts and
// transport limits, cloned from http.DefaultTransport to preserve its proxy,
// dialer, and HTTP/2 defaults.
func newFeedHTTPClient() *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 10
	transport.MaxIdleConnsPerHost = 2
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.ExpectContinueTimeout = 1 * time.Second

	return &http.Client{
		// A full first-fetch of the national dataset can be large; the caller
		// additionally bounds each poll with a context timeout and the
		// stricter of the two wins.
		Timeout:   60 * time.Second,
		Transport: transport,
	}
}

// NewClient creates a feed client. An empty RequestorID is replaced with a
// random UUID so the first poll receives the full dataset.
func NewClient(config Config) *Client {
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.RequestorID == "" {
		config.RequestorID = uuid.NewString()
	}
	return &Client{
		config:     config,
		httpClient: newFeedHTTPClient(),
	}
}

// RequestorID reports the id the client polls with.
func (c *Client) RequestorID() string {
	return c.config.RequestorID
}

// Fetch returns the journeys of one feed snapshot, from the static dump when
// configured and from the API otherwise.
func (c *Client) Fetch(ctx context.Context) ([]EstimatedVehicleJourney, error) {
	var (
		response *Response
		err      error
	)
	if c.config.StaticDataPath != "" {
		response, err = readStaticDump(c.config.StaticDataPath)
	} else {
		response, err = c.fetchAPI(ctx)
	}
	if err != nil {
		return nil, err
	}
	return response.Journeys(), nil
}

func (c *Client) fetchAPI(ctx context.Context) (*Response, error) {
	logger := logging.FromContext(ctx).With(slog.String("component", "siri_client"))

	req, err := http.NewRequestWithContext(ctx, "GET", c.config.APIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating SIRI-ET request: %w", err)
	}
	query := req.URL.Query()
	query.Set("requestorId", c.config.RequestorID)
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Accept", "application/json")

	logger.Info("polling SIRI-ET feed",
		slog.String("url", c.config.APIURL),
		slog.String("requestor_id", c.config.RequestorID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SIRI-ET request: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siri-et fetch failed: %s returned %s", c.config.APIURL, resp.Status)
	}

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decoding SIRI-ET response: %w", err)
	}
	return &response, nil
}

func readStaticDump(path string) (*Response, error) {
	logger := slog.Default().With(slog.String("component", "siri_client"))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening static feed dump: %w", err)
	}
	defer logging.SafeCloseWithLogging(f, logger, "static_feed_dump")

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip feed dump: %w", err)
		}
		defer logging.SafeCloseWithLogging(gz, logger, "static_feed_dump_gzip")
		reader = gz
	}

	var response Response
	if err := json.NewDecoder(reader).Decode(&response); err != nil {
		return nil, fmt.Errorf("decoding static feed dump %s: %w", path, err)
	}
	return &response, nil
}
