package pipeline

import (
	"log/slog"
	"time"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// TicketAudit es un pase post-assembly sobre tickets ya armados. Todos los
// audits son idempotentes: correr dos veces sobre un set ya conforme no
// descarta nada más.
type TicketAudit interface {
	Name() string
	Audit(tickets []domain.Ticket) []domain.Ticket
}

// buildAudits arma la lista ordenada de audits.
func buildAudits(cfg Config, suppressed func(key string) bool, now func() time.Time) []TicketAudit {
	return []TicketAudit{
		&DiversityAudit{MaxPerType: cfg.MaxPerType},
		&CorrelationAudit{},
		&SmartReplacement{Suppressed: suppressed},
		&LockTimeAudit{
			Now:             now,
			TooLateMinutes:  cfg.TooLateMinutes,
			LastCallMinutes: cfg.LastCallMinutes,
		},
	}
}

// DiversityAudit rechaza tickets sin diversidad: selections que no sean
// una-por-stat-type y una-por-juego, o prop spam (un type más de MaxPerType
// veces).
type DiversityAudit struct {
	MaxPerType int
}

func (a *DiversityAudit) Name() string { return "diversity" }

func (a *DiversityAudit) Audit(tickets []domain.Ticket) []domain.Ticket {
	kept := tickets[:0]
	for _, t := range tickets {
		if a.diverse(t) {
			kept = append(kept, t)
		} else {
			slog.Debug("diversity audit dropped ticket", "ticket_id", t.ID)
		}
	}
	return kept
}

func (a *DiversityAudit) diverse(t domain.Ticket) bool {
	statTypes := make(map[string]int)
	games := make(map[string]bool)
	for _, s := range t.Selections {
		statTypes[s.PropType]++
		games[s.GameKey] = true
	}
	if len(statTypes) < t.Legs() || len(games) < t.Legs() {
		return false
	}
	for _, count := range statTypes {
		if count > a.MaxPerType {
			return false
		}
	}
	return true
}

// CorrelationAudit es el re-chequeo defensivo post-assembly: ningún ticket
// puede repetir la clave (player, prop_type).
type CorrelationAudit struct{}

func (a *CorrelationAudit) Name() string { return "correlation" }

func (a *CorrelationAudit) Audit(tickets []domain.Ticket) []domain.Ticket {
	kept := tickets[:0]
	for _, t := range tickets {
		seen := make(map[string]bool)
		correlated := false
		for _, s := range t.Selections {
			if seen[s.Key()] {
				correlated = true
				break
			}
			seen[s.Key()] = true
		}
		if correlated {
			slog.Warn("correlation audit dropped ticket with duplicate key", "ticket_id", t.ID)
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// SmartReplacement remueve legs suprimidos o red-flagged. Si el ticket
// quedó con menos legs que los que tenía, se descarta entero: nunca se
// postea silenciosamente un parlay más corto del armado.
type SmartReplacement struct {
	// Suppressed decide si la clave (player, prop_type) está suprimida.
	Suppressed func(key string) bool
}

func (a *SmartReplacement) Name() string { return "smart_replacement" }

func (a *SmartReplacement) Audit(tickets []domain.Ticket) []domain.Ticket {
	if a.Suppressed == nil {
		return tickets
	}
	kept := tickets[:0]
	for _, t := range tickets {
		original := t.Legs()
		clean := t.Selections[:0]
		for _, s := range t.Selections {
			if a.Suppressed(s.Key()) {
				continue
			}
			clean = append(clean, s)
		}
		t.Selections = clean
		if t.Legs() < original {
			slog.Info("smart replacement dropped degraded ticket",
				"ticket_id", t.ID,
				"legs_removed", original-t.Legs(),
			)
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// LockTimeAudit mata tickets con algún leg que arranca en menos de
// TooLateMinutes, y marca LastCall los que tienen un leg entre TooLate y
// LastCallMinutes — esos van a la cola aparte, no al posteo normal.
type LockTimeAudit struct {
	Now             func() time.Time
	TooLateMinutes  float64
	LastCallMinutes float64
}

func (a *LockTimeAudit) Name() string { return "lock_time" }

func (a *LockTimeAudit) Audit(tickets []domain.Ticket) []domain.Ticket {
	now := a.Now()
	kept := tickets[:0]
	for _, t := range tickets {
		mins := t.MinutesToFirstLock(now)
		if mins < a.TooLateMinutes {
			slog.Info("lock-time audit dropped ticket",
				"ticket_id", t.ID,
				"minutes_to_lock", int(mins),
			)
			continue
		}
		if mins < a.LastCallMinutes {
			t.LastCall = true
		}
		kept = append(kept, t)
	}
	return kept
}
