package ports

import (
	"context"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// PropsSource entrega el snapshot de props candidatas para un run.
// El pipeline no sabe de dónde salieron (API de odds, fixtures, etc.).
type PropsSource interface {
	// FetchProps devuelve todas las props disponibles para el deporte dado.
	FetchProps(ctx context.Context, sport string) ([]domain.PropRecord, error)
}

// SentimentSource entrega la señal de moneyline por equipo.
type SentimentSource interface {
	// FetchSignals devuelve la señal agregada {sentiment, trap, blowout}
	// para cada equipo con juego hoy.
	FetchSignals(ctx context.Context, sport string) (map[string]domain.TeamSignal, error)
}

// ScoresSource entrega los valores reales para gradear selections.
type ScoresSource interface {
	// FetchActuals devuelve el stat final por clave (player, prop_type)
	// para el juego dado. Claves ausentes = juego sin terminar o sin dato.
	FetchActuals(ctx context.Context, sport, gameKey string) (map[string]float64, error)
}
