package domain

// HistoryWindow es el largo máximo de la ventana de resultados por clave.
const HistoryWindow = 50

// PlayerHistory es el agregado por (player, prop_type): ventana acotada de
// resultados más estadísticas derivadas. Solo se le agrega al gradear; nunca
// se reescribe retroactivamente salvo el recorte de la ventana.
type PlayerHistory struct {
	Results    []Result `json:"results"` // más reciente al final
	TotalPicks int      `json:"total_picks"`
	Streak     int      `json:"current_streak"` // + = racha de wins, - = de losses
	HitRate    float64  `json:"hit_rate"`
	// ConfidenceAdjust es el ajuste fino aprendido por la calibración.
	ConfidenceAdjust float64 `json:"confidence_adjustment"`
}

// Append agrega un resultado, recorta a la ventana y recalcula derivados.
func (h *PlayerHistory) Append(r Result) {
	h.Results = append(h.Results, r)
	if len(h.Results) > HistoryWindow {
		h.Results = h.Results[len(h.Results)-HistoryWindow:]
	}
	h.TotalPicks++
	h.Streak = computeStreak(h.Results)
	h.HitRate = computeHitRate(h.Results)
}

// SampleSize devuelve la cantidad de resultados decididos (sin pushes).
func (h PlayerHistory) SampleSize() int {
	n := 0
	for _, r := range h.Results {
		if r == ResultWin || r == ResultLoss {
			n++
		}
	}
	return n
}

// LastN devuelve los últimos n resultados (o menos si no hay suficientes).
func (h PlayerHistory) LastN(n int) []Result {
	if len(h.Results) <= n {
		return h.Results
	}
	return h.Results[len(h.Results)-n:]
}

// computeStreak cuenta la corrida de resultados iguales desde el más reciente.
// Los pushes cortan la racha (ni win ni loss).
func computeStreak(results []Result) int {
	if len(results) == 0 {
		return 0
	}
	last := results[len(results)-1]
	if last != ResultWin && last != ResultLoss {
		return 0
	}
	streak := 0
	for i := len(results) - 1; i >= 0; i-- {
		if results[i] != last {
			break
		}
		streak++
	}
	if last == ResultLoss {
		return -streak
	}
	return streak
}

// computeHitRate devuelve wins / (wins + losses) dentro de la ventana.
// Sin resultados decididos devuelve 0.5 (prior neutro).
func computeHitRate(results []Result) float64 {
	wins, decided := 0, 0
	for _, r := range results {
		switch r {
		case ResultWin:
			wins++
			decided++
		case ResultLoss:
			decided++
		}
	}
	if decided == 0 {
		return 0.5
	}
	return float64(wins) / float64(decided)
}
