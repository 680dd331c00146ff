package pipeline

import (
	"github.com/alejandrodnm/propbot/internal/domain"
)

// Run es el estado compartido de un ciclo: la lista mutable de props más
// las señales externas y el feedback histórico. Los stages lo mutan en el
// orden fijo en que fueron construidos.
type Run struct {
	Props   []domain.PropRecord
	Signals map[string]domain.TeamSignal
	History domain.HistoryView

	// Skipped cuenta records malformados excluidos en el intake.
	Skipped int
	// Removed cuenta records eliminados (no bloqueados) por el trap radar.
	Removed int
}

// Stage es un filtro de contexto: lee/escribe confidence y flags sobre los
// props del run. Los errores por datos faltantes degradan a "sin ajuste"
// dentro del stage; un stage nunca aborta el run.
type Stage interface {
	Name() string
	Apply(run *Run)
}

// buildStages arma la lista ordenada de filtros habilitados. El orden
// importa: sentiment/contexto corren antes que exposure, porque los
// conteos de exposure deben ver las confidences ya penalizadas.
func buildStages(cfg Config) []Stage {
	var stages []Stage
	if cfg.Stages.Sentiment {
		stages = append(stages, &SentimentFilter{Weights: cfg.Weights})
	}
	if cfg.Stages.CLV {
		stages = append(stages, &CLVFilter{Weights: cfg.Weights})
	}
	if cfg.Stages.Opponent {
		stages = append(stages, &OpponentFilter{Penalty: cfg.Weights.OpponentPenalty})
	}
	if cfg.Stages.BookTrap {
		stages = append(stages, &BookTrapRadar{})
	}
	if cfg.Stages.TightMiss {
		stages = append(stages, &TightMissFilter{})
	}
	if cfg.Stages.RedFlag {
		stages = append(stages, &RedFlagFilter{})
	}
	if cfg.Stages.Exposure {
		stages = append(stages, &ExposureFilter{Limits: cfg.Exposure, Weights: cfg.Weights})
	}
	return stages
}
