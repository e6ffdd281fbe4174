package food

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"nourish/internal/nutrient"
)

const (
	DefaultOpenFoodFactsBaseURL = "https://world.openfoodfacts.org/api/v2"

	unknownProductName = "Unbekanntes Produkt"
)

// Product is a barcode lookup result.
type Product struct {
	Barcode    string
	Name       string
	Brand      string
	Nutriments map[string]any
}

// offNutriments maps Open Food Facts per-100 g keys to profile fields and the
// factor converting the provider's unit into ours.
var offNutriments = []struct {
	key    string
	field  nutrient.Field
	factor float64
}{
	{"energy-kcal_100g", nutrient.Calories, 1},
	{"proteins_100g", nutrient.Protein, 1},
	{"carbohydrates_100g", nutrient.Carbs, 1},
	{"sugars_100g", nutrient.CarbsSugar, 1},
	{"fiber_100g", nutrient.Fiber, 1},
	{"fat_100g", nutrient.Fat, 1},
	{"saturated-fat_100g", nutrient.FatSaturated, 1},
	{"sodium_100g", nutrient.Sodium, 1000},
	{"vitamin-c_100g", nutrient.VitaminC, 1},
	{"calcium_100g", nutrient.Calcium, 1000},
	{"iron_100g", nutrient.Iron, 1000},
}

// Profile converts the product's nutriments into a per-100 g profile.
// Non-numeric values count as zero.
func (p Product) Profile() nutrient.Profile {
	values := make(map[nutrient.Field]float64, len(offNutriments))
	for _, n := range offNutriments {
		if v, ok := nutrient.Number(p.Nutriments[n.key]); ok {
			values[n.field] = v * n.factor
		}
	}
	return nutrient.New(values)
}

// Record converts the product into a resolved food record.
func (p Product) Record() *Record {
	return &Record{
		Name:       p.Name,
		Brand:      p.Brand,
		Source:     SourceBarcode,
		ExternalID: p.Barcode,
		Per100g:    p.Profile(),
	}
}

// OpenFoodFactsClient looks up packaged products by barcode.
type OpenFoodFactsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOpenFoodFactsClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *OpenFoodFactsClient {
	if baseURL == "" {
		baseURL = DefaultOpenFoodFactsBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &OpenFoodFactsClient{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// Lookup returns the product for barcode. A missing product, a non-success
// status or an unreadable body yield (nil, nil).
func (c *OpenFoodFactsClient) Lookup(ctx context.Context, barcode string) (*Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/product/"+url.PathEscape(barcode), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("barcode lookup failed", zap.String("barcode", barcode), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("barcode lookup status", zap.String("barcode", barcode), zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	var payload struct {
		Status  int `json:"status"`
		Product struct {
			ProductName *string        `json:"product_name"`
			Brands      string         `json:"brands"`
			Nutriments  map[string]any `json:"nutriments"`
		} `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("barcode lookup decode", zap.String("barcode", barcode), zap.Error(err))
		return nil, nil
	}
	if payload.Status != 1 {
		return nil, nil
	}

	name := unknownProductName
	if payload.Product.ProductName != nil && *payload.Product.ProductName != "" {
		name = *payload.Product.ProductName
	}
	return &Product{
		Barcode:    barcode,
		Name:       name,
		Brand:      payload.Product.Brands,
		Nutriments: payload.Product.Nutriments,
	}, nil
}
