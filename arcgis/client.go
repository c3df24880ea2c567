// Package arcgis is a small client for the ArcGIS REST API: layer metadata
// and applyEdits against FeatureServer layers.
package arcgis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client represents an ArcGIS client with configuration.
type Client struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient creates a new ArcGIS client with the specified timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Timeout: timeout,
	}
}

// NormalizeLayerURL ensures a scheme, drops the f= query parameter and
// any trailing slash so endpoint paths can be appended safely.
func NormalizeLayerURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid layer url %q: %w", rawURL, err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return "", fmt.Errorf("invalid layer url %q: %w", rawURL, err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("layer url %q must be http or https", rawURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	q := u.Query()
	q.Del("f")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchAndDecode fetches data from a URL and decodes it into the target interface.
func (c *Client) FetchAndDecode(ctx context.Context, urlStr string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", urlStr, err)
	}
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	urlStr := req.URL.String()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return fmt.Errorf("request timed out fetching data from %s: %w", urlStr, err)
		}
		return fmt.Errorf("failed to fetch data from %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-OK HTTP status %d from %s", resp.StatusCode, urlStr)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to parse JSON from %s: %w", urlStr, err)
	}
	return nil
}

// FetchLayer fetches the JSON metadata of a single layer, drawingInfo included.
func (c *Client) FetchLayer(ctx context.Context, layerURL string) (*Layer, error) {
	base, err := NormalizeLayerURL(layerURL)
	if err != nil {
		return nil, err
	}
	target, err := endpointURL(base, "", url.Values{"f": {"json"}})
	if err != nil {
		return nil, err
	}
	var layer Layer
	if err := c.FetchAndDecode(ctx, target, &layer); err != nil {
		return nil, err
	}
	if layer.Error != nil {
		return nil, fmt.Errorf("layer metadata from %s: %w", base, layer.Error)
	}
	return &layer, nil
}

// QueryObjectIDs returns the object ids of every feature in a layer.
func (c *Client) QueryObjectIDs(ctx context.Context, layerURL string) ([]int64, error) {
	base, err := NormalizeLayerURL(layerURL)
	if err != nil {
		return nil, err
	}
	target, err := endpointURL(base, "query", url.Values{
		"f":             {"json"},
		"where":         {"1=1"},
		"returnIdsOnly": {"true"},
	})
	if err != nil {
		return nil, err
	}

	var out ObjectIDsResponse
	if err := c.FetchAndDecode(ctx, target, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("objectId query on %s: %w", base, out.Error)
	}
	return out.ObjectIDs, nil
}

// ApplyEdits posts adds and deletes to a layer's applyEdits endpoint.
// Per-feature failures are reported in the returned results, not as an error.
func (c *Client) ApplyEdits(ctx context.Context, layerURL string, adds []Feature, deletes []int64) (*ApplyEditsResponse, error) {
	base, err := NormalizeLayerURL(layerURL)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("f", "json")
	if len(adds) > 0 {
		b, err := json.Marshal(adds)
		if err != nil {
			return nil, fmt.Errorf("encode adds: %w", err)
		}
		form.Set("adds", string(b))
	}
	if len(deletes) > 0 {
		ids := make([]string, len(deletes))
		for i, id := range deletes {
			ids[i] = strconv.FormatInt(id, 10)
		}
		form.Set("deletes", strings.Join(ids, ","))
	}

	endpoint, err := endpointURL(base, "applyEdits", nil)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out ApplyEditsResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("applyEdits on %s: %w", base, out.Error)
	}
	return &out, nil
}

// endpointURL appends an operation to the layer path and merges params into
// whatever query (a token, say) the layer url already carries.
func endpointURL(base, op string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if op != "" {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + op
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
