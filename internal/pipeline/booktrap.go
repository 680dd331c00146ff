package pipeline

import (
	"log/slog"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// Umbrales del trap radar, calibrados sobre comportamiento observado de books.
const (
	juicedOddsFloor  = -170 // odds más cargadas que esto + desaparición = trap
	maxLineMovement  = 1.5  // movimiento de línea mayor = sospechoso
	minBooksForTrust = 2    // una línea en un solo book es aislada
)

// BookTrapRadar elimina (no bloquea) props con señales de trampa del book:
// líneas aisladas en un solo book, odds muy cargadas que desaparecieron,
// o movimiento de línea anómalo. Se eliminan del run porque no aportan
// ni como audit trail — son ruido del book, no picks descartados.
type BookTrapRadar struct{}

func (f *BookTrapRadar) Name() string { return "book_trap" }

func (f *BookTrapRadar) Apply(run *Run) {
	clean := run.Props[:0]
	removed := 0

	for i := range run.Props {
		p := run.Props[i]
		if reason, trap := trapReason(p); trap {
			removed++
			slog.Debug("trap radar removed prop",
				"player", p.Player,
				"prop_type", p.PropType,
				"reason", reason,
			)
			continue
		}
		clean = append(clean, p)
	}

	run.Props = clean
	run.Removed += removed
	if removed > 0 {
		slog.Info("book trap radar suppressed props", "count", removed)
	}
}

func trapReason(p domain.PropRecord) (string, bool) {
	// BookCount 0 significa "sin dato" — no castigar la ausencia de señal
	if p.BookCount == 1 && minBooksForTrust > 1 {
		return "isolated_line", true
	}
	if p.Odds < juicedOddsFloor && p.Disappeared {
		return "juiced_disappeared", true
	}
	if p.LineMovement > maxLineMovement || p.LineMovement < -maxLineMovement {
		return "suspicious_movement", true
	}
	return "", false
}
