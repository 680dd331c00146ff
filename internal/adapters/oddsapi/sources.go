package oddsapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// FetchProps implementa ports.PropsSource: lista los eventos del día y pide
// los mercados de player props de cada uno.
func (c *Client) FetchProps(ctx context.Context, sport string) ([]domain.PropRecord, error) {
	markets, ok := c.propMarkets[sport]
	if !ok {
		return nil, fmt.Errorf("oddsapi.FetchProps: no prop markets configured for %q", sport)
	}

	var events []eventDTO
	if err := c.get(ctx, c.oddsLimiter, "/v4/sports/"+sport+"/events", nil, &events); err != nil {
		return nil, fmt.Errorf("oddsapi.FetchProps: list events: %w", err)
	}

	var props []domain.PropRecord
	for _, event := range events {
		var odds eventOddsDTO
		params := url.Values{}
		params.Set("markets", markets)
		params.Set("oddsFormat", "american")
		path := "/v4/sports/" + sport + "/events/" + event.ID + "/odds"
		if err := c.get(ctx, c.propsLimiter, path, params, &odds); err != nil {
			// Un evento sin props no corta el fetch completo
			slog.Warn("props fetch failed for event", "event_id", event.ID, "err", err)
			continue
		}
		props = append(props, mapEventProps(odds)...)
	}

	slog.Info("props fetched", "sport", sport, "events", len(events), "props", len(props))
	return props, nil
}

// FetchSignals implementa ports.SentimentSource: baja los moneylines h2h de
// todos los books y los pasa por el análisis de sentiment por equipo.
func (c *Client) FetchSignals(ctx context.Context, sport string) (map[string]domain.TeamSignal, error) {
	var events []eventOddsDTO
	params := url.Values{}
	params.Set("markets", "h2h")
	params.Set("oddsFormat", "american")
	if err := c.get(ctx, c.oddsLimiter, "/v4/sports/"+sport+"/odds", params, &events); err != nil {
		return nil, fmt.Errorf("oddsapi.FetchSignals: %w", err)
	}

	signals := make(map[string]domain.TeamSignal)
	for _, event := range events {
		lines := mapMoneylines(event)
		for team, signal := range domain.AnalyzeGame(lines) {
			signals[team] = signal
		}
	}

	slog.Info("sentiment signals built", "sport", sport, "teams", len(signals))
	return signals, nil
}

// FetchActuals implementa ports.ScoresSource: stats finales por jugador de
// un juego terminado, mapeadas a la clave (player, prop_type) del gradeo.
func (c *Client) FetchActuals(ctx context.Context, sport, gameKey string) (map[string]float64, error) {
	var stats []playerStatDTO
	params := url.Values{}
	params.Set("game", gameKey)
	path := "/v4/sports/" + sport + "/player-stats"
	if err := c.get(ctx, c.scoresLimiter, path, params, &stats); err != nil {
		return nil, fmt.Errorf("oddsapi.FetchActuals: %w", err)
	}

	actuals := make(map[string]float64, len(stats))
	for _, s := range stats {
		propType := marketPropType(s.Market)
		actuals[domain.PropKey(s.Player, propType)] = s.Value
	}
	return actuals, nil
}
