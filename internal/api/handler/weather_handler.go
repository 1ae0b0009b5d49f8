package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/malagaclima/lluviabet/internal/weather"
)

// WeatherHandler exposes the station's current conditions so clients can
// show what the odds are anchored on.
type WeatherHandler struct {
	source weather.Source
}

// NewWeatherHandler creates a WeatherHandler.
func NewWeatherHandler(source weather.Source) *WeatherHandler {
	return &WeatherHandler{source: source}
}

// GetToday godoc
// GET /api/weather/today
func (h *WeatherHandler) GetToday(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now()

	rain, err := h.source.GetRainAmount(ctx, now)
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "ERR_WEATHER_UNAVAILABLE", "weather data unavailable")
		return
	}
	temp, err := h.source.GetTemperature(ctx, now)
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "ERR_WEATHER_UNAVAILABLE", "weather data unavailable")
		return
	}
	wind, err := h.source.GetWindSpeed(ctx, now)
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "ERR_WEATHER_UNAVAILABLE", "weather data unavailable")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"rain":        rain,
		"temperature": temp,
		"wind":        wind,
	})
}
