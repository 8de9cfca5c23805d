// Package geo wraps the three public lookups the dashboards use: postal
// code to address, free-text address to coordinates, and driving route
// between two points. Every call is a soft dependency: failures are logged
// and reported as nil, never as an error the caller must handle.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const userAgent = "DeliveryApp/1.0"

type Config struct {
	PostalBaseURL   string
	GeocoderBaseURL string
	RouterBaseURL   string
	Timeout         time.Duration
}

type PostalAddress struct {
	ZipCode      string `json:"zipCode"`
	Street       string `json:"street"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RouteInfo struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Distance        string  `json:"distance"`
	Duration        string  `json:"duration"`
}

type Client struct {
	http   *resty.Client
	cfg    Config
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.PostalBaseURL = strings.TrimRight(cfg.PostalBaseURL, "/")
	cfg.GeocoderBaseURL = strings.TrimRight(cfg.GeocoderBaseURL, "/")
	cfg.RouterBaseURL = strings.TrimRight(cfg.RouterBaseURL, "/")

	h := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &Client{http: h, cfg: cfg, logger: logger}
}

// get fetches rawURL and decodes the body into out. Upstreams don't always
// send a JSON content type, so the body is decoded by hand.
func (c *Client) get(ctx context.Context, api, rawURL string, out any) bool {
	resp, err := c.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		c.logger.Warn("geo request failed", zap.String("api", api), zap.Error(err))
		return false
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn("geo request returned non-200",
			zap.String("api", api),
			zap.Int("status", resp.StatusCode()),
		)
		return false
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		c.logger.Warn("geo response not decodable", zap.String("api", api), zap.Error(err))
		return false
	}
	return true
}

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	// erro is a boolean on current ViaCEP and the string "true" on older
	// deployments; any non-empty value means not found.
	Erro json.RawMessage `json:"erro"`
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LookupPostalCode returns the address for an 8-digit Brazilian postal
// code. Punctuation is ignored.
func (c *Client) LookupPostalCode(ctx context.Context, code string) *PostalAddress {
	clean := digits(code)
	if len(clean) != 8 {
		return nil
	}

	var body viaCEPResponse
	if !c.get(ctx, "postal", fmt.Sprintf("%s/%s/json/", c.cfg.PostalBaseURL, clean), &body) {
		return nil
	}
	if e := strings.TrimSpace(string(body.Erro)); e != "" && e != "false" && e != "null" {
		return nil
	}

	return &PostalAddress{
		ZipCode:      body.CEP,
		Street:       body.Logradouro,
		Complement:   body.Complemento,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the coordinates of the first match for query.
func (c *Client) Geocode(ctx context.Context, query string) *Coordinates {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var results []nominatimResult
	if !c.get(ctx, "geocode", c.cfg.GeocoderBaseURL+"/search?"+params.Encode(), &results) {
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		c.logger.Warn("geocoder returned bad latitude", zap.String("lat", results[0].Lat))
		return nil
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		c.logger.Warn("geocoder returned bad longitude", zap.String("lon", results[0].Lon))
		return nil
	}
	return &Coordinates{Lat: lat, Lng: lng}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route returns distance and duration of the first driving route.
func (c *Client) Route(ctx context.Context, from, to Coordinates) *RouteInfo {
	// OSRM wants lng,lat pairs joined by ';' in the path, unescaped.
	u := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=false",
		c.cfg.RouterBaseURL,
		coord(from.Lng), coord(from.Lat),
		coord(to.Lng), coord(to.Lat),
	)

	var body osrmResponse
	if !c.get(ctx, "route", u, &body) {
		return nil
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		c.logger.Info("router found no route", zap.String("code", body.Code))
		return nil
	}

	r := body.Routes[0]
	return &RouteInfo{
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Distance:        FormatDistance(r.Distance),
		Duration:        FormatDuration(r.Duration),
	}
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
