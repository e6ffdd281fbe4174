package food

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nourish/internal/nutrient"
)

const (
	DefaultUSDABaseURL     = "https://api.nal.usda.gov/fdc/v1"
	DefaultUSDAMinInterval = 400 * time.Millisecond
	DefaultUSDARetries     = 3
	DefaultUSDABackoff     = time.Second
	DefaultUSDAPageSize    = 10
)

// usdaNutrientIDs maps FoodData Central nutrient ids to profile fields.
var usdaNutrientIDs = map[int]nutrient.Field{
	1008: nutrient.Calories, 1003: nutrient.Protein, 1005: nutrient.Carbs,
	1063: nutrient.CarbsSugar, 1079: nutrient.Fiber, 1004: nutrient.Fat,
	1258: nutrient.FatSaturated, 1292: nutrient.FatMono, 1293: nutrient.FatPoly,
	1093: nutrient.Sodium, 1087: nutrient.Calcium, 1090: nutrient.Magnesium,
	1092: nutrient.Potassium, 1091: nutrient.Phosphorus, 1089: nutrient.Iron,
	1095: nutrient.Zinc, 1098: nutrient.Copper, 1100: nutrient.Selenium,
	1101: nutrient.Manganese, 1104: nutrient.VitaminA, 1165: nutrient.VitaminB1,
	1166: nutrient.VitaminB2, 1167: nutrient.VitaminB3, 1170: nutrient.VitaminB6,
	1178: nutrient.VitaminB12, 1162: nutrient.VitaminC, 1114: nutrient.VitaminD,
	1109: nutrient.VitaminE, 1185: nutrient.VitaminK, 1177: nutrient.VitaminB9,
}

// Candidate is one hit of a remote food search.
type Candidate struct {
	FdcID       int
	Description string
	DataType    string
	Score       float64
	Nutrients   map[int]float64
}

// Profile converts the candidate's nutrient list into a per-100 g profile.
// Unknown nutrient ids are ignored.
func (c Candidate) Profile() nutrient.Profile {
	values := make(map[nutrient.Field]float64)
	for id, v := range c.Nutrients {
		if f, ok := usdaNutrientIDs[id]; ok {
			values[f] = v
		}
	}
	return nutrient.New(values)
}

// Record converts the candidate into a resolved food record.
func (c Candidate) Record() *Record {
	return &Record{
		Name:       c.Description,
		Source:     SourceRemote,
		ExternalID: strconv.Itoa(c.FdcID),
		Per100g:    c.Profile(),
	}
}

// USDAConfig configures a USDAClient. Zero durations and counts fall back
// to the package defaults.
type USDAConfig struct {
	APIKey      string
	BaseURL     string
	MinInterval time.Duration
	Retries     int
	Backoff     time.Duration
	HTTPClient  *http.Client
}

// USDAClient searches FoodData Central. All calls made through one client
// share a single rate limiter, so concurrent searches still keep the
// minimum interval between requests.
type USDAClient struct {
	apiKey     string
	baseURL    string
	retries    int
	backoff    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *zap.Logger
}

func NewUSDAClient(cfg USDAConfig, logger *zap.Logger) *USDAClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultUSDABaseURL
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultUSDAMinInterval
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultUSDABackoff
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &USDAClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		retries:    cfg.Retries,
		backoff:    cfg.Backoff,
		limiter:    rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
}

var errRetryable = errors.New("usda: unexpected status")

// Search queries the remote database. Transient failures are retried with
// linearly increasing backoff; once retries are exhausted the search yields
// no candidates and a nil error. Only context cancellation is returned.
func (c *USDAClient) Search(ctx context.Context, query string, max int) ([]Candidate, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	if max <= 0 {
		max = DefaultUSDAPageSize
	}

	attempts := c.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		candidates, err := c.search(ctx, query, max)
		if err == nil {
			return candidates, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("usda search failed",
			zap.String("query", query),
			zap.Int("attempt", attempt+1),
			zap.Int("attempts", attempts),
			zap.Error(err))

		if attempt == attempts-1 {
			break
		}
		if err := sleep(ctx, c.backoff*time.Duration(attempt+1)); err != nil {
			return nil, err
		}
	}

	c.logger.Error("usda search gave up", zap.String("query", query), zap.Int("attempts", attempts))
	return nil, nil
}

func (c *USDAClient) search(ctx context.Context, query string, max int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(max))
	params.Add("dataType", dataTypeSurvey)
	params.Add("dataType", "Foundation")
	params.Add("dataType", dataTypeLegacy)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/foods/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status=%d body=%s", errRetryable, resp.StatusCode, string(body))
	}

	var payload struct {
		Foods []struct {
			FdcID         int     `json:"fdcId"`
			Description   string  `json:"description"`
			DataType      string  `json:"dataType"`
			Score         float64 `json:"score"`
			FoodNutrients []struct {
				NutrientID int     `json:"nutrientId"`
				Value      float64 `json:"value"`
			} `json:"foodNutrients"`
		} `json:"foods"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Foods))
	for _, f := range payload.Foods {
		nutrients := make(map[int]float64, len(f.FoodNutrients))
		for _, n := range f.FoodNutrients {
			nutrients[n.NutrientID] = n.Value
		}
		candidates = append(candidates, Candidate{
			FdcID:       f.FdcID,
			Description: f.Description,
			DataType:    f.DataType,
			Score:       f.Score,
			Nutrients:   nutrients,
		})
	}
	return candidates, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
