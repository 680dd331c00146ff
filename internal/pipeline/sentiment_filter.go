package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// SentimentFilter aplica la lectura de moneyline por equipo sobre cada prop:
// penaliza traps y riesgo de blowout, boostea equipos bullish, y bloquea
// props que contradicen directamente la lectura (under contra un bullish).
type SentimentFilter struct {
	Weights Weights
}

func (f *SentimentFilter) Name() string { return "sentiment" }

func (f *SentimentFilter) Apply(run *Run) {
	if len(run.Signals) == 0 {
		slog.Debug("sentiment filter: no signals, skipping")
		return
	}

	blocked := 0
	for i := range run.Props {
		p := &run.Props[i]
		signal, ok := run.Signals[p.Team]
		if !ok {
			continue
		}

		if signal.Trap {
			p.Adjust(-f.Weights.TrapPenalty)
			p.Flag("trap_penalty", "moneyline juice trap")
		}
		if signal.BlowoutRisk > 0.5 {
			p.Adjust(-f.Weights.BlowoutPenalty)
			p.Flag("blowout_penalty", fmt.Sprintf("blowout risk %.2f", signal.BlowoutRisk))
		}
		if signal.Sentiment == domain.SentimentBullish {
			p.Adjust(f.Weights.BullishBoost)
			p.Flag("bullish_boost", "moneyline consensus bullish")

			// Contradicción directa: fade/under contra un equipo bullish
			if p.Side == domain.SideUnder {
				p.Block("contradicts bullish moneyline read")
				blocked++
			}
		}
	}

	if blocked > 0 {
		slog.Info("sentiment filter blocked contradictory props", "count", blocked)
	}
}

// CLVFilter ajusta por closing line value: cerrar a favor es señal de
// calidad del pick, cerrar en contra la degrada.
type CLVFilter struct {
	Weights Weights
}

func (f *CLVFilter) Name() string { return "clv" }

func (f *CLVFilter) Apply(run *Run) {
	for i := range run.Props {
		p := &run.Props[i]
		if p.CLV > 0 {
			p.Adjust(f.Weights.CLVBoost)
			p.Flag("clv_boost", "positive closing line value")
		} else if p.CLV < 0 {
			p.Adjust(-f.Weights.CLVPenalty)
			p.Flag("clv_penalty", "negative closing line value")
		}
	}
}
