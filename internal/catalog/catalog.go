// Package catalog resolves UPCs against the wholesale distributor's bulk
// catalog, with an optional upstream product API behind it. Results are
// cached in Redis because the CSV is large and the API is metered.
package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pedalworks/shop-backend/internal/shop/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Distributor CSV column layout.
const (
	colUPC           = 1
	colBrand         = 3
	colMSRP          = 8
	colWholesale     = 10
	colDescription   = 20
	minCatalogFields = 21
)

// notFoundMarker is cached for UPCs known to be absent, so repeated scans of
// a miss are avoided.
const notFoundMarker = "!"

// Client looks up products by UPC. Implements service.Catalog.
type Client struct {
	csvPath    string
	apiURL     string
	apiKey     string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// New creates a catalog client. cache may be nil to disable caching.
func New(csvPath, apiURL, apiKey string, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Client {
	return &Client{
		csvPath:    csvPath,
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// LookupUPC resolves a UPC to product attributes. Returns nil, nil when the
// UPC is unknown to both the CSV catalog and the product API.
func (c *Client) LookupUPC(ctx context.Context, upc string) (*service.CatalogProduct, error) {
	if product, hit := c.cacheGet(ctx, upc); hit {
		return product, nil
	}

	product, err := c.scanCSV(upc)
	if err != nil {
		return nil, err
	}
	if product == nil && c.apiURL != "" {
		product, err = c.queryAPI(ctx, upc)
		if err != nil {
			return nil, err
		}
	}

	c.cachePut(ctx, upc, product)
	return product, nil
}

func (c *Client) cacheKey(upc string) string {
	return "catalog:upc:" + upc
}

func (c *Client) cacheGet(ctx context.Context, upc string) (*service.CatalogProduct, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, c.cacheKey(upc)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		return nil, false
	}
	if raw == notFoundMarker {
		return nil, true
	}
	var product service.CatalogProduct
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return nil, false
	}
	return &product, true
}

func (c *Client) cachePut(ctx context.Context, upc string, product *service.CatalogProduct) {
	if c.cache == nil {
		return
	}
	value := notFoundMarker
	if product != nil {
		raw, err := json.Marshal(product)
		if err != nil {
			return
		}
		value = string(raw)
	}
	if err := c.cache.Set(ctx, c.cacheKey(upc), value, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.Error(err))
	}
}

// scanCSV streams the distributor catalog looking for the UPC. The file can
// run to hundreds of megabytes, so it is never loaded whole.
func (c *Client) scanCSV(upc string) (*service.CatalogProduct, error) {
	if c.csvPath == "" {
		return nil, nil
	}
	f, err := os.Open(c.csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open catalog csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog csv: %w", err)
		}
		if len(record) < minCatalogFields || record[colUPC] != upc {
			continue
		}
		wholesale, _ := strconv.ParseFloat(record[colWholesale], 64)
		msrp, _ := strconv.ParseFloat(record[colMSRP], 64)
		return &service.CatalogProduct{
			Name:          record[colDescription],
			Brand:         record[colBrand],
			WholesaleCost: wholesale,
			StandardPrice: msrp,
		}, nil
	}
}

// queryAPI asks the upstream product service about the UPC.
func (c *Client) queryAPI(ctx context.Context, upc string) (*service.CatalogProduct, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?upc="+upc, nil)
	if err != nil {
		return nil, fmt.Errorf("build product api request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query product api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product api returned %d", resp.StatusCode)
	}

	var result struct {
		Name          string  `json:"name"`
		Brand         string  `json:"brand"`
		WholesaleCost float64 `json:"wholesale_cost"`
		StandardPrice float64 `json:"standard_price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode product api response: %w", err)
	}
	if result.Name == "" {
		return nil, nil
	}
	return &service.CatalogProduct{
		Name:          result.Name,
		Brand:         result.Brand,
		WholesaleCost: result.WholesaleCost,
		StandardPrice: result.StandardPrice,
	}, nil
}
