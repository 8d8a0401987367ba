package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/observability"
)

const defaultEndpoint = "https://api.mapbox.com/search/geocode/v6/reverse"

// placeTypes are the feature types worth showing as a hazard address. Coarser
// ones (region, country) say nothing useful about a beach.
const placeTypes = "address,street,neighborhood,locality,place"

// Client resolves device fixes to addresses with the Mapbox reverse
// geocoding API.
type Client struct {
	token    string
	language string
	endpoint string
	http     *http.Client
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:    token,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: timeout},
		metrics:  metrics,
		logger:   logger,
	}
}

// WithLanguage returns a copy of c that asks for place names in lang.
func (c *Client) WithLanguage(lang string) *Client {
	cp := *c
	cp.language = lang
	return &cp
}

// ReverseGeocode returns the closest named place to fix. An empty Place means
// Mapbox has nothing there, which is common off the coast.
func (c *Client) ReverseGeocode(ctx context.Context, fix domain.Coordinates) (domain.Place, error) {
	start := time.Now()
	place, err := c.lookup(ctx, fix)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case place.Address == "":
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	return place, err
}

func (c *Client) lookup(ctx context.Context, fix domain.Coordinates) (domain.Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(fix), nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("build reverse geocode request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Place{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Place{}, fmt.Errorf("reverse geocode: mapbox status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return domain.Place{}, fmt.Errorf("decode reverse geocode response: %w", err)
	}
	if len(fc.Features) == 0 {
		c.logger.Debug("no place near fix", "lat", fix.Latitude, "lon", fix.Longitude)
		return domain.Place{}, nil
	}
	return domain.Place{Address: fc.Features[0].Properties.address()}, nil
}

func (c *Client) requestURL(fix domain.Coordinates) string {
	q := url.Values{}
	q.Set("longitude", strconv.FormatFloat(fix.Longitude, 'f', 6, 64))
	q.Set("latitude", strconv.FormatFloat(fix.Latitude, 'f', 6, 64))
	q.Set("types", placeTypes)
	q.Set("access_token", c.token)
	if c.language != "" {
		q.Set("language", c.language)
	}
	return c.endpoint + "?" + q.Encode()
}

type featureCollection struct {
	Features []struct {
		Properties properties `json:"properties"`
	} `json:"features"`
}

type properties struct {
	Name           string `json:"name"`
	FullAddress    string `json:"full_address"`
	PlaceFormatted string `json:"place_formatted"`
}

// address prefers the provider's full address, then builds one from the
// feature name and its surrounding place.
func (p properties) address() string {
	if p.FullAddress != "" {
		return p.FullAddress
	}
	switch {
	case p.Name != "" && p.PlaceFormatted != "":
		return p.Name + ", " + p.PlaceFormatted
	case p.Name != "":
		return p.Name
	default:
		return p.PlaceFormatted
	}
}
