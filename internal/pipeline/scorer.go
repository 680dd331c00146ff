package pipeline

import (
	"log/slog"
	"math"

	"github.com/alejandrodnm/propbot/internal/domain"
)

const baselineConfidence = 0.5

// Scorer asigna la confidence inicial de cada prop aplicando una lista
// ordenada de ajustes aditivos. No elimina ni reordena records; solo toca
// Confidence y los flags propios del scoring.
type Scorer struct {
	weights   Weights
	minSample int
	volatile  map[string]bool
}

// NewScorer crea un Scorer con los pesos y prop types volátiles dados.
func NewScorer(cfg Config) *Scorer {
	volatile := make(map[string]bool, len(cfg.VolatilePropTypes))
	for _, pt := range cfg.VolatilePropTypes {
		volatile[pt] = true
	}
	return &Scorer{
		weights:   cfg.Weights,
		minSample: cfg.MinSample,
		volatile:  volatile,
	}
}

// Score calcula la confidence de cada record partiendo del baseline 0.5.
// Historia ausente o malformada degrada a "sin ajuste" — nunca falla.
// El valor final queda clampeado a [0,1] y redondeado a 2 decimales.
func (s *Scorer) Score(props []domain.PropRecord, hist domain.HistoryView) []domain.PropRecord {
	for i := range props {
		props[i].Confidence = s.scoreOne(&props[i], hist)
	}
	slog.Debug("scoring complete", "props", len(props))
	return props
}

func (s *Scorer) scoreOne(p *domain.PropRecord, hist domain.HistoryView) float64 {
	conf := baselineConfidence

	// Valor de odds: plus-odds suman, minus-odds restan, con tope
	oddsAdj := math.Min(math.Abs(float64(p.Odds))/1000.0, s.weights.OddsCap)
	if p.Odds > 0 {
		conf += oddsAdj
	} else if p.Odds < 0 {
		conf -= oddsAdj
	}

	// Prop types volátiles arrancan penalizados, salvo variante segura
	if s.volatile[p.PropType] && p.Tag != domain.TagLowRisk {
		conf -= s.weights.VolatilityPenalty
		p.Flag("volatility_penalty", "high-variance prop type")
	}

	// Tier de riesgo del book
	switch p.Tag {
	case domain.TagLowRisk:
		conf += s.weights.TierBoost
	case domain.TagHighRisk:
		conf -= s.weights.TierPenalty
	}

	// Historia por (player, prop_type): sin datos no hay ajuste
	if h, ok := hist.PlayerStats(p.Key()); ok {
		if h.Streak > 2 {
			conf += s.weights.StreakBoost
			p.Flag("streak_boost", "hot streak")
		} else if h.Streak < -2 {
			conf -= s.weights.StreakBoost
			p.Flag("streak_penalty", "cold streak")
		}

		// Ajuste por hit rate solo con muestra suficiente (anti-overfit)
		if h.SampleSize() >= s.minSample {
			if h.HitRate < 0.30 {
				conf -= s.weights.ColdHitRatePenalty
				p.Flag("cold_hit_rate", "hit rate below 0.30")
			} else if h.HitRate > 0.70 {
				conf += s.weights.HotHitRateBoost
				p.Flag("hot_hit_rate", "hit rate above 0.70")
			}
		}

		conf += h.ConfidenceAdjust
	}

	// Calibración por tier, aprendida de los resultados recientes
	if adj, ok := hist.TierAdjust[domain.ConfidenceBucket(conf)]; ok {
		conf += adj
	}

	return domain.RoundConfidence(conf)
}
