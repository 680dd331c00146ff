package pipeline

import (
	"log/slog"
)

// ExposureFilter limita la concentración de riesgo: demasiados picks del
// mismo equipo, del mismo prop type, o demasiados picks de alta confidence.
// Cuenta sobre el set completo de candidatos; superado un umbral, penaliza
// y flaggea a TODOS los records del grupo, no solo al excedente.
type ExposureFilter struct {
	Limits  ExposureLimits
	Weights Weights
}

func (f *ExposureFilter) Name() string { return "exposure" }

func (f *ExposureFilter) Apply(run *Run) {
	teamCount := make(map[string]int)
	typeCount := make(map[string]int)
	highConf := 0

	for i := range run.Props {
		p := &run.Props[i]
		if p.Team != "" {
			teamCount[p.Team]++
		}
		typeCount[p.PropType]++
		if p.Confidence > f.Limits.HighConfThreshold {
			highConf++
		}
	}

	for i := range run.Props {
		p := &run.Props[i]
		if p.Team != "" && teamCount[p.Team] > f.Limits.TeamMax {
			p.Adjust(-f.Weights.TeamExposure)
			p.Flag("team_overexposed", "too many picks on "+p.Team)
		}
		if typeCount[p.PropType] > f.Limits.TypeMax {
			p.Adjust(-f.Weights.TypeExposure)
			p.Flag("type_overexposed", "too many "+p.PropType+" picks")
		}
		if highConf > f.Limits.HighConfMax && p.Confidence > f.Limits.HighConfThreshold {
			p.Adjust(-f.Weights.HighConfExposure)
			p.Flag("high_conf_overexposed", "too many high-confidence picks")
		}
	}

	slog.Debug("exposure counts",
		"teams", len(teamCount),
		"types", len(typeCount),
		"high_conf", highConf,
	)
}

// OpponentFilter penaliza props contra oponentes "duros": los equipos con
// más derrotas acumuladas contra nuestras props en la ventana histórica.
type OpponentFilter struct {
	Penalty float64
}

func (f *OpponentFilter) Name() string { return "opponent" }

func (f *OpponentFilter) Apply(run *Run) {
	if len(run.History.ToughOpponents) == 0 {
		return
	}
	for i := range run.Props {
		p := &run.Props[i]
		if p.Opponent != "" && run.History.ToughOpponents[p.Opponent] {
			p.Adjust(-f.Penalty)
			p.Flag("tough_matchup", "opponent "+p.Opponent+" beats our props")
		}
	}
}
