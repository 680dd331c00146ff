package domain

import "strings"

// HistoryView es el snapshot de feedback histórico que consume un run del
// pipeline: historia por clave, oponentes duros, supresiones y calibración.
// Se construye desde el Record Store antes de correr; el pipeline solo lee.
type HistoryView struct {
	// Players mapea PropKey(player, prop_type) → agregado histórico.
	Players map[string]PlayerHistory
	// ToughOpponents son los equipos con más losses contra nuestras props.
	ToughOpponents map[string]bool
	// RedFlags marca claves con 3 derrotas seguidas (se levanta con 2 wins).
	RedFlags map[string]bool
	// TightMissSuppressed marca claves con 3+ tight misses en 7 días.
	TightMissSuppressed map[string]bool
	// UsedToday marca claves ya posteadas hoy (regla no-dup).
	UsedToday map[string]bool
	// TierAdjust es el ajuste de calibración por bucket de confidence.
	TierAdjust map[string]float64
}

// PlayerStats devuelve la historia de la clave. ok=false si no hay datos:
// el llamador degrada a "sin ajuste", nunca falla.
func (v HistoryView) PlayerStats(key string) (PlayerHistory, bool) {
	h, ok := v.Players[key]
	return h, ok
}

// PropTypeHitRate agrega el hit rate de un prop type a través de todos los
// jugadores. Devuelve el rate y el tamaño de muestra decidida.
func (v HistoryView) PropTypeHitRate(propType string) (float64, int) {
	wins, decided := 0, 0
	suffix := "|" + propType
	for key, h := range v.Players {
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		for _, r := range h.Results {
			switch r {
			case ResultWin:
				wins++
				decided++
			case ResultLoss:
				decided++
			}
		}
	}
	if decided == 0 {
		return 0.5, 0
	}
	return float64(wins) / float64(decided), decided
}
