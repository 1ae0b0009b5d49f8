// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        // e.g. "8080"
	Env          string        // "development" | "production"
	ReadTimeout  time.Duration // default 10s
	WriteTimeout time.Duration // default 10s
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// WeatherConfig holds Open-Meteo API settings for the Málaga station.
type WeatherConfig struct {
	BaseURL      string        // default "https://api.open-meteo.com"
	Latitude     float64       // default 36.7213 (Málaga)
	Longitude    float64       // default -4.4214
	Timezone     string        // default "Europe/Madrid"
	FetchTimeout time.Duration // default 5s
	CacheTTL     time.Duration // default 10m
}

// BettingConfig holds wager rules: stake floor, the nightly rain window,
// settlement tolerances and retention.
type BettingConfig struct {
	MinStake            float64       // minimum coin stake, default 10
	StartingBalance     float64       // coins seeded into a new wallet, default 100
	DailyReward         float64       // coins per daily claim, default 25
	RainWindowOpenHour  int           // local hour rain betting opens, default 23
	RainWindowCloseHour int           // local hour it closes next morning, default 9
	RainToleranceMM     float64       // win epsilon for rain_amount, default 0.5
	TempToleranceC      float64       // win epsilon for temp_min/temp_max, default 1.0
	WindToleranceKmh    float64       // win epsilon for wind_max, default 5.0
	WetDayThresholdMM   float64       // rain_yes/rain_no wet-day cutoff, default 0.1
	SettleInterval      time.Duration // settlement loop tick, default 1m
	RetentionHorizon    time.Duration // terminal wagers older than this are swept, default 720h
	WaterUnitsPerWin    int           // plant water credited per won wager, default 1
}

// RedisConfig holds the optional Redis cache settings. An empty Addr
// selects the in-memory cache instead.
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"; "" disables Redis
	Password string
	DB       int
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Weather WeatherConfig
	Betting BettingConfig
	Redis   RedisConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// Returns the first validation error encountered.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}

	if c.Betting.MinStake <= 0 {
		errs = append(errs, fmt.Errorf("BET_MIN_STAKE must be positive, got %.2f", c.Betting.MinStake))
	}
	if c.Betting.RainToleranceMM < 0 || c.Betting.TempToleranceC < 0 || c.Betting.WindToleranceKmh < 0 {
		errs = append(errs, errors.New("settlement tolerances must not be negative"))
	}
	if h := c.Betting.RainWindowOpenHour; h < 0 || h > 23 {
		errs = append(errs, fmt.Errorf("BET_RAIN_WINDOW_OPEN_HOUR must be 0–23, got %d", h))
	}
	if h := c.Betting.RainWindowCloseHour; h < 0 || h > 23 {
		errs = append(errs, fmt.Errorf("BET_RAIN_WINDOW_CLOSE_HOUR must be 0–23, got %d", h))
	}
	if c.Betting.RainWindowOpenHour == c.Betting.RainWindowCloseHour {
		errs = append(errs, errors.New("rain window open and close hours must differ"))
	}

	if _, err := time.LoadLocation(c.Weather.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("WEATHER_TIMEZONE %q: %w", c.Weather.Timezone, err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Location returns the display timezone for the betting window. Validate()
// guarantees it loads; the fallback only fires in unvalidated test configs.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Weather.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		Env:          getEnv("ENVIRONMENT", "development"),
		ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "lluviabet"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── Weather ───────────────────────────────────────────────────────────────
	lat, err := getFloat("WEATHER_LATITUDE", 36.7213)
	if err != nil {
		return nil, fmt.Errorf("WEATHER_LATITUDE: %w", err)
	}
	lon, err := getFloat("WEATHER_LONGITUDE", -4.4214)
	if err != nil {
		return nil, fmt.Errorf("WEATHER_LONGITUDE: %w", err)
	}

	cfg.Weather = WeatherConfig{
		BaseURL:      getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com"),
		Latitude:     lat,
		Longitude:    lon,
		Timezone:     getEnv("WEATHER_TIMEZONE", "Europe/Madrid"),
		FetchTimeout: getDuration("WEATHER_FETCH_TIMEOUT", 5*time.Second),
		CacheTTL:     getDuration("WEATHER_CACHE_TTL", 10*time.Minute),
	}

	// ── Betting ───────────────────────────────────────────────────────────────
	minStake, err := getFloat("BET_MIN_STAKE", 10)
	if err != nil {
		return nil, fmt.Errorf("BET_MIN_STAKE: %w", err)
	}
	startBalance, err := getFloat("BET_STARTING_BALANCE", 100)
	if err != nil {
		return nil, fmt.Errorf("BET_STARTING_BALANCE: %w", err)
	}
	dailyReward, err := getFloat("BET_DAILY_REWARD", 25)
	if err != nil {
		return nil, fmt.Errorf("BET_DAILY_REWARD: %w", err)
	}
	openHour, err := getInt("BET_RAIN_WINDOW_OPEN_HOUR", 23)
	if err != nil {
		return nil, fmt.Errorf("BET_RAIN_WINDOW_OPEN_HOUR: %w", err)
	}
	closeHour, err := getInt("BET_RAIN_WINDOW_CLOSE_HOUR", 9)
	if err != nil {
		return nil, fmt.Errorf("BET_RAIN_WINDOW_CLOSE_HOUR: %w", err)
	}
	rainTol, err := getFloat("BET_RAIN_TOLERANCE_MM", 0.5)
	if err != nil {
		return nil, fmt.Errorf("BET_RAIN_TOLERANCE_MM: %w", err)
	}
	tempTol, err := getFloat("BET_TEMP_TOLERANCE_C", 1.0)
	if err != nil {
		return nil, fmt.Errorf("BET_TEMP_TOLERANCE_C: %w", err)
	}
	windTol, err := getFloat("BET_WIND_TOLERANCE_KMH", 5.0)
	if err != nil {
		return nil, fmt.Errorf("BET_WIND_TOLERANCE_KMH: %w", err)
	}
	wetDay, err := getFloat("BET_WET_DAY_THRESHOLD_MM", 0.1)
	if err != nil {
		return nil, fmt.Errorf("BET_WET_DAY_THRESHOLD_MM: %w", err)
	}
	waterUnits, err := getInt("BET_WATER_UNITS_PER_WIN", 1)
	if err != nil {
		return nil, fmt.Errorf("BET_WATER_UNITS_PER_WIN: %w", err)
	}

	cfg.Betting = BettingConfig{
		MinStake:            minStake,
		StartingBalance:     startBalance,
		DailyReward:         dailyReward,
		RainWindowOpenHour:  openHour,
		RainWindowCloseHour: closeHour,
		RainToleranceMM:     rainTol,
		TempToleranceC:      tempTol,
		WindToleranceKmh:    windTol,
		WetDayThresholdMM:   wetDay,
		SettleInterval:      getDuration("BET_SETTLE_INTERVAL", time.Minute),
		RetentionHorizon:    getDuration("BET_RETENTION_HORIZON", 30*24*time.Hour),
		WaterUnitsPerWin:    waterUnits,
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	cfg.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", v)
	}
	return f, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
