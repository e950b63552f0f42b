// Package catapi talks to thecatapi.com image search endpoint.
package catapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"catsgallery/structs"
	"catsgallery/utils"
)

const (
	DefaultBaseURL = "https://api.thecatapi.com"
	SearchPath     = "/v1/images/search"
	PageSize       = 5
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewHTTPClient returns a client with transport level timeouts only. The
// request itself carries no deadline.
func NewHTTPClient(dialTimeout, responseHeaderTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = 7 * time.Second
	transport.ResponseHeaderTimeout = responseHeaderTimeout
	transport.MaxIdleConnsPerHost = 20
	transport.IdleConnTimeout = 5 * time.Minute

	return &http.Client{
		Transport: transport,
	}
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        utils.NewLogger("catapi"),
	}
}

func (c *Client) SearchURL() string {
	return c.baseURL + SearchPath + "?limit=" + strconv.Itoa(PageSize)
}

// FetchCats issues one GET against the search endpoint and returns the
// descriptors in response order.
func (c *Client) FetchCats(ctx context.Context) ([]structs.Cat, error) {
	url := c.SearchURL()
	c.log.Debug().Str("url", url).Send()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Err(err).Msg("Failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &HttpError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var cats []structs.Cat
	if err := json.Unmarshal(body, &cats); err != nil {
		c.log.Error().Err(err).Str("body", string(body)).Msg("Failed to decode cat API response")
		return nil, err
	}
	if cats == nil {
		cats = []structs.Cat{}
	}

	c.log.Debug().
		Str("url", url).
		Int("count", len(cats)).
		Send()
	return cats, nil
}

// StatusCode maps a FetchCats error to the HTTP status that caused it. Zero
// is returned for transport and decode failures.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
