// Package listings implements the external real-estate listings client.
// The upstream API is opaque to the core: tiles are cached downstream with
// the property TTL and the coordinator throttles batches toward it.
package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/heatmap-service/internal/config"
	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/domain/repository"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates the listings API client.
func NewClient(cfg *config.ListingsConfig, logger *zap.Logger) repository.ListingsRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// searchResponse mirrors the upstream wire format.
type searchResponse struct {
	Properties []listingPayload `json:"properties"`
	Clusters   []clusterPayload `json:"clusters"`
	TotalCount int              `json:"totalCount"`
}

type listingPayload struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Price    float64 `json:"price"`
	Area     float64 `json:"area"`
	Rooms    int     `json:"rooms"`
	Estate   string  `json:"estateType"`
	ImageURL string  `json:"imageUrl"`
}

type clusterPayload struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
}

func (c *client) FetchListings(ctx context.Context, bounds domain.Bounds, filters domain.PropertyFilters, sources []string) (*domain.ListingsPage, error) {
	q := url.Values{}
	q.Set("north", fmt.Sprintf("%f", bounds.North))
	q.Set("south", fmt.Sprintf("%f", bounds.South))
	q.Set("east", fmt.Sprintf("%f", bounds.East))
	q.Set("west", fmt.Sprintf("%f", bounds.West))
	if len(sources) > 0 {
		q.Set("sources", strings.Join(sources, ","))
	}
	if filters.Transaction != "" {
		q.Set("transaction", string(filters.Transaction))
	}
	if len(filters.EstateTypes) > 0 {
		q.Set("estateTypes", strings.Join(filters.EstateTypes, ","))
	}
	if filters.PriceMin > 0 {
		q.Set("priceMin", fmt.Sprintf("%g", filters.PriceMin))
	}
	if filters.PriceMax > 0 {
		q.Set("priceMax", fmt.Sprintf("%g", filters.PriceMax))
	}
	if filters.AreaMin > 0 {
		q.Set("areaMin", fmt.Sprintf("%g", filters.AreaMin))
	}
	if filters.AreaMax > 0 {
		q.Set("areaMax", fmt.Sprintf("%g", filters.AreaMax))
	}
	if filters.RoomsMin > 0 {
		q.Set("roomsMin", fmt.Sprintf("%d", filters.RoomsMin))
	}
	if filters.RoomsMax > 0 {
		q.Set("roomsMax", fmt.Sprintf("%d", filters.RoomsMax))
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create listings request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Listings request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to execute listings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Listings API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("listings API error: status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode listings response: %w", err)
	}

	page := &domain.ListingsPage{
		Properties: make([]domain.Listing, 0, len(payload.Properties)),
		Clusters:   make([]domain.ListingCluster, 0, len(payload.Clusters)),
		TotalCount: payload.TotalCount,
	}
	for _, p := range payload.Properties {
		page.Properties = append(page.Properties, domain.Listing{
			ID:       p.ID,
			Source:   p.Source,
			Title:    p.Title,
			URL:      p.URL,
			Lat:      p.Lat,
			Lng:      p.Lng,
			Price:    p.Price,
			Area:     p.Area,
			Rooms:    p.Rooms,
			Estate:   p.Estate,
			ImageURL: p.ImageURL,
		})
	}
	for _, cl := range payload.Clusters {
		page.Clusters = append(page.Clusters, domain.ListingCluster(cl))
	}

	c.logger.Debug("Listings fetched",
		zap.Int("count", len(page.Properties)),
		zap.Int("total", page.TotalCount),
		zap.Duration("took", time.Since(start)))

	return page, nil
}
