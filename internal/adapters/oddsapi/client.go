// Package oddsapi implementa los sources externos del pipeline contra un
// API de odds estilo the-odds-api: player props, moneylines (input del
// análisis de sentiment) y stats finales (input del gradeo).
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://api.the-odds-api.com"

	// Rate limits conservadores: el plan free del API es 500 req/mes,
	// los pagos van por burst. Limitar acá evita quemar cuota en un loop.
	propsRatePerSec  = 2
	oddsRatePerSec   = 5
	scoresRatePerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client del API de odds con rate limiting y retries.
type Client struct {
	http          *http.Client
	base          string
	apiKey        string
	propsLimiter  *rate.Limiter
	oddsLimiter   *rate.Limiter
	scoresLimiter *rate.Limiter

	// PropMarkets son los mercados de player props a pedir por deporte.
	propMarkets map[string]string
}

// NewClient crea un Client. Si base está vacío usa el URL de producción.
func NewClient(base, apiKey string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:          &http.Client{Timeout: 10 * time.Second},
		base:          base,
		apiKey:        apiKey,
		propsLimiter:  rate.NewLimiter(propsRatePerSec, 2),
		oddsLimiter:   rate.NewLimiter(oddsRatePerSec, 5),
		scoresLimiter: rate.NewLimiter(scoresRatePerSec, 5),
		propMarkets:   defaultPropMarkets(),
	}
}

// defaultPropMarkets mapea sport key → lista de mercados de props (CSV).
func defaultPropMarkets() map[string]string {
	return map[string]string{
		"basketball_nba":     "player_points,player_rebounds,player_assists,player_threes",
		"baseball_mlb":       "batter_hits,batter_total_bases,pitcher_strikeouts",
		"americanfootball_nfl": "player_pass_yds,player_rush_yds,player_receptions",
		"icehockey_nhl":      "player_points,player_shots_on_goal",
	}
}

// get hace un GET con rate limiting y retries, agregando el api key.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)
	full := c.base + path + "?" + params.Encode()

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by odds API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
