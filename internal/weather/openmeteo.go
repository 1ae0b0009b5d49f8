package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/malagaclima/lluviabet/internal/cache"
	"github.com/malagaclima/lluviabet/internal/config"
)

// DayReading bundles everything the Open-Meteo daily endpoint reports for
// one calendar day. Cached as a unit so the three Source methods share one
// upstream call.
type DayReading struct {
	Date             time.Time `json:"date"`
	PrecipitationMM  float64   `json:"precipitation_mm"`
	PrecipChancePct  float64   `json:"precip_chance_pct"`
	TempMinC         float64   `json:"temp_min_c"`
	TempMaxC         float64   `json:"temp_max_c"`
	TempCurrentC     float64   `json:"temp_current_c"`
	WindMaxKmh       float64   `json:"wind_max_kmh"`
	WindCurrentKmh   float64   `json:"wind_current_kmh"`
	WindDirectionDeg float64   `json:"wind_direction_deg"`
}

// OpenMeteoClient fetches daily conditions for the configured coordinates
// and caches each day's reading. It implements Source.
type OpenMeteoClient struct {
	client *http.Client
	cfg    *config.WeatherConfig
	cache  cache.Cache[DayReading]

	// last successful upstream fetch (for health reporting)
	statusMu    sync.RWMutex
	lastSuccess time.Time
}

// NewOpenMeteoClient constructs a client from config. dayCache may be a
// memory or Redis cache; it must not be nil.
func NewOpenMeteoClient(cfg *config.Config, dayCache cache.Cache[DayReading]) *OpenMeteoClient {
	return &OpenMeteoClient{
		client: &http.Client{Timeout: cfg.Weather.FetchTimeout},
		cfg:    &cfg.Weather,
		cache:  dayCache,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Source implementation
// ──────────────────────────────────────────────────────────────────────────────

// GetRainAmount returns the accumulated rain and precipitation probability
// for the station-local day containing date.
func (c *OpenMeteoClient) GetRainAmount(ctx context.Context, date time.Time) (RainReading, error) {
	day, err := c.day(ctx, date)
	if err != nil {
		return RainReading{}, err
	}
	return RainReading{Date: day.Date, AmountMM: day.PrecipitationMM, ChancePct: day.PrecipChancePct}, nil
}

// GetTemperature returns min/max/current temperature for the day.
func (c *OpenMeteoClient) GetTemperature(ctx context.Context, date time.Time) (TemperatureReading, error) {
	day, err := c.day(ctx, date)
	if err != nil {
		return TemperatureReading{}, err
	}
	return TemperatureReading{Date: day.Date, MinC: day.TempMinC, MaxC: day.TempMaxC, CurrentC: day.TempCurrentC}, nil
}

// GetWindSpeed returns max/current wind speed and direction for the day.
func (c *OpenMeteoClient) GetWindSpeed(ctx context.Context, date time.Time) (WindReading, error) {
	day, err := c.day(ctx, date)
	if err != nil {
		return WindReading{}, err
	}
	return WindReading{Date: day.Date, MaxKmh: day.WindMaxKmh, CurrentKmh: day.WindCurrentKmh, DirectionDeg: day.WindDirectionDeg}, nil
}

// Healthy reports whether the upstream responded within the last cache TTL.
func (c *OpenMeteoClient) Healthy() bool {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return !c.lastSuccess.IsZero() && time.Since(c.lastSuccess) < c.cfg.CacheTTL
}

// ──────────────────────────────────────────────────────────────────────────────
// Fetching
// ──────────────────────────────────────────────────────────────────────────────

// day returns the reading for the station-local day containing date,
// consulting the cache first.
func (c *OpenMeteoClient) day(ctx context.Context, date time.Time) (DayReading, error) {
	loc, err := time.LoadLocation(c.cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	dayKey := date.In(loc).Format("2006-01-02")
	cacheKey := "weather:day:" + dayKey

	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		return cached, nil
	}

	day, err := c.fetchDay(ctx, dayKey)
	if err != nil {
		return DayReading{}, err
	}

	if err := c.cache.Set(ctx, cacheKey, day, c.cfg.CacheTTL); err != nil {
		// Cache failures are not data failures; the reading is still good.
		_ = err
	}

	c.statusMu.Lock()
	c.lastSuccess = time.Now()
	c.statusMu.Unlock()

	return day, nil
}

// openMeteoResponse mirrors the slices the daily endpoint returns.
//
//	GET /v1/forecast?latitude=36.72&longitude=-4.42&daily=...&current=...
//	{"daily":{"time":["2026-08-29"],"precipitation_sum":[0.4],...},
//	 "current":{"temperature_2m":24.1,...}}
type openMeteoResponse struct {
	Daily struct {
		Time                     []string  `json:"time"`
		PrecipitationSum         []float64 `json:"precipitation_sum"`
		PrecipitationProbability []float64 `json:"precipitation_probability_max"`
		TemperatureMin           []float64 `json:"temperature_2m_min"`
		TemperatureMax           []float64 `json:"temperature_2m_max"`
		WindSpeedMax             []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
	Current struct {
		Temperature   float64 `json:"temperature_2m"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WindDirection float64 `json:"wind_direction_10m"`
	} `json:"current"`
}

// fetchDay asks Open-Meteo for a single calendar day.
func (c *OpenMeteoClient) fetchDay(ctx context.Context, dayKey string) (DayReading, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", c.cfg.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", c.cfg.Longitude))
	q.Set("daily", "precipitation_sum,precipitation_probability_max,temperature_2m_min,temperature_2m_max,wind_speed_10m_max")
	q.Set("current", "temperature_2m,wind_speed_10m,wind_direction_10m")
	q.Set("timezone", c.cfg.Timezone)
	q.Set("start_date", dayKey)
	q.Set("end_date", dayKey)

	body, err := c.doGet(ctx, c.cfg.BaseURL+"/v1/forecast?"+q.Encode())
	if err != nil {
		return DayReading{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var resp openMeteoResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return DayReading{}, fmt.Errorf("%w: parse: %v", ErrUnavailable, err)
	}
	if len(resp.Daily.Time) == 0 {
		return DayReading{}, fmt.Errorf("%w: empty daily block for %s", ErrUnavailable, dayKey)
	}

	date, err := time.Parse("2006-01-02", resp.Daily.Time[0])
	if err != nil {
		return DayReading{}, fmt.Errorf("%w: bad date %q", ErrUnavailable, resp.Daily.Time[0])
	}

	day := DayReading{
		Date:             date,
		PrecipitationMM:  at(resp.Daily.PrecipitationSum, 0),
		PrecipChancePct:  at(resp.Daily.PrecipitationProbability, 0),
		TempMinC:         at(resp.Daily.TemperatureMin, 0),
		TempMaxC:         at(resp.Daily.TemperatureMax, 0),
		WindMaxKmh:       at(resp.Daily.WindSpeedMax, 0),
		TempCurrentC:     resp.Current.Temperature,
		WindCurrentKmh:   resp.Current.WindSpeed,
		WindDirectionDeg: resp.Current.WindDirection,
	}
	return day, nil
}

// at guards against short daily arrays (the API omits series it cannot
// compute for historical dates, e.g. precipitation probability).
func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}

// doGet performs an HTTP GET with the client's timeout and returns the body
// bytes, or an error for any non-200 status code.
func (c *OpenMeteoClient) doGet(ctx context.Context, fetchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "lluviabet/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Ensure OpenMeteoClient satisfies Source.
var _ Source = (*OpenMeteoClient)(nil)
