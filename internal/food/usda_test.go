package food

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"nourish/internal/nutrient"
)

const usdaSearchBody = `{
	"foods": [
		{
			"fdcId": 171705,
			"description": "Salmon, Atlantic, wild, raw",
			"dataType": "SR Legacy",
			"score": 512.3,
			"foodNutrients": [
				{"nutrientId": 1008, "value": 142},
				{"nutrientId": 1003, "value": 19.84},
				{"nutrientId": 1004, "value": 6.34},
				{"nutrientId": 1093, "value": 44},
				{"nutrientId": 9999, "value": 1}
			]
		},
		{
			"fdcId": 2684441,
			"description": "Salmon, cooked",
			"dataType": "Survey (FNDDS)",
			"score": 480
		}
	]
}`

func newTestUSDA(t *testing.T, url string, interval time.Duration) *USDAClient {
	t.Helper()
	return NewUSDAClient(USDAConfig{
		APIKey:      "test-key",
		BaseURL:     url,
		MinInterval: interval,
		Retries:     2,
		Backoff:     time.Millisecond,
	}, zap.NewNop())
}

func TestUSDAClient_Search(t *testing.T) {
	t.Run("parses candidates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/foods/search" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("api_key") != "test-key" || q.Get("query") != "salmon" || q.Get("pageSize") != "10" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			if got := q["dataType"]; len(got) != 3 {
				t.Errorf("dataType = %v, want three tiers", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(usdaSearchBody))
		}))
		defer server.Close()

		c := newTestUSDA(t, server.URL, time.Millisecond)
		got, err := c.Search(context.Background(), "salmon", 10)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		p := got[0].Profile()
		if p.Get(nutrient.Calories) != 142 || p.Get(nutrient.Protein) != 19.84 || p.Get(nutrient.Sodium) != 44 {
			t.Errorf("unexpected profile %v", p.Map())
		}
		rec := got[0].Record()
		if rec.Source != SourceRemote || rec.ExternalID != "171705" {
			t.Errorf("unexpected record %+v", rec)
		}
	})

	t.Run("retries non-success status", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(usdaSearchBody))
		}))
		defer server.Close()

		c := newTestUSDA(t, server.URL, time.Millisecond)
		got, err := c.Search(context.Background(), "salmon", 10)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
		if n := atomic.LoadInt32(&calls); n != 3 {
			t.Errorf("calls = %d, want 3", n)
		}
	})

	t.Run("gives up after bounded retries", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := newTestUSDA(t, server.URL, time.Millisecond)
		got, err := c.Search(context.Background(), "salmon", 10)
		if err != nil || got != nil {
			t.Fatalf("Search() = %v, %v; want nil, nil", got, err)
		}
		if n := atomic.LoadInt32(&calls); n != 3 {
			t.Errorf("calls = %d, want 3", n)
		}
	})

	t.Run("no api key skips the request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		}))
		defer server.Close()

		c := NewUSDAClient(USDAConfig{BaseURL: server.URL}, zap.NewNop())
		got, err := c.Search(context.Background(), "salmon", 10)
		if err != nil || got != nil {
			t.Errorf("Search() = %v, %v; want nil, nil", got, err)
		}
	})

	t.Run("cancelled context is returned", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := newTestUSDA(t, server.URL, time.Millisecond)
		if _, err := c.Search(ctx, "salmon", 10); err == nil {
			t.Error("expected context error")
		}
	})
}

func TestUSDAClient_RateLimit(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		w.Write([]byte(`{"foods": []}`))
	}))
	defer server.Close()

	interval := 40 * time.Millisecond
	c := newTestUSDA(t, server.URL, interval)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Search(context.Background(), "apple", 5)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 3 {
		t.Fatalf("requests = %d, want 3", len(times))
	}
	first, last := times[0], times[0]
	for _, ts := range times {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	// Allow a little scheduling slack below two full intervals.
	if spread := last.Sub(first); spread < 2*interval-10*time.Millisecond {
		t.Errorf("requests spread over %v, want at least %v", spread, 2*interval)
	}
}
