package pipeline

import (
	"sort"
	"time"

	"github.com/alejandrodnm/propbot/internal/domain"
	"github.com/google/uuid"
)

// Assembler agrupa props elegibles en tickets bajo restricciones de
// diversidad y tamaño. Los parlays y los singles se arman por caminos
// separados: un single no es un parlay degenerado.
type Assembler struct {
	cfg Config
	now func() time.Time
}

// NewAssembler crea un Assembler con la configuración dada.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{cfg: cfg, now: time.Now}
}

// Assemble arma hasta MaxTickets parlays de hasta MaxLegs selections.
// Ordena los elegibles por confidence desc (tie-break: |odds| mayor gana,
// para favorecer tickets distintos entre sí) y llena greedy, rechazando
// selections que repitan (player, prop_type) o juego dentro del ticket.
// Con menos de 2 elegibles no produce parlays.
func (a *Assembler) Assemble(props []domain.PropRecord) []domain.Ticket {
	candidates := eligible(props)
	if len(candidates) < 2 {
		return nil
	}
	sortCandidates(candidates)

	var tickets []domain.Ticket
	used := make(map[int]bool, len(candidates))

	for len(tickets) < a.cfg.MaxTickets {
		var selections []domain.Selection
		games := make(map[string]bool)
		keys := make(map[string]bool)

		for i, c := range candidates {
			if used[i] || len(selections) >= a.cfg.MaxLegs {
				continue
			}
			if keys[c.Key()] || games[c.GameKey] {
				continue
			}
			selections = append(selections, domain.Selection{
				PropRecord: c,
				Result:     domain.ResultPending,
			})
			keys[c.Key()] = true
			games[c.GameKey] = true
			used[i] = true
		}

		// Un parlay necesita al menos 2 legs; menos tickets antes que
		// violar la unicidad por juego
		if len(selections) < 2 {
			break
		}
		tickets = append(tickets, a.newTicket(domain.KindParlay, selections))
	}

	return tickets
}

// AssembleSingles arma tickets de un solo leg — un tipo de ticket propio,
// reservado a los picks de mayor confidence que no entraron en parlays.
func (a *Assembler) AssembleSingles(props []domain.PropRecord) []domain.Ticket {
	if a.cfg.MaxSingles <= 0 {
		return nil
	}
	candidates := eligible(props)
	sortCandidates(candidates)

	var tickets []domain.Ticket
	seen := make(map[string]bool)
	for _, c := range candidates {
		if len(tickets) >= a.cfg.MaxSingles {
			break
		}
		if c.Confidence < a.cfg.SingleMinConf || seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		tickets = append(tickets, a.newTicket(domain.KindSingle, []domain.Selection{
			{PropRecord: c, Result: domain.ResultPending},
		}))
	}
	return tickets
}

func (a *Assembler) newTicket(kind domain.TicketKind, selections []domain.Selection) domain.Ticket {
	odds := make([]int, len(selections))
	for i, s := range selections {
		odds[i] = s.Odds
	}
	return domain.Ticket{
		ID:         uuid.New().String(),
		Kind:       kind,
		CreatedAt:  a.now().UTC(),
		Selections: selections,
		Result:     domain.ResultPending,
		Stake:      a.cfg.Stake,
		Payout:     domain.ParlayPayout(a.cfg.Stake, odds),
	}
}

// eligible devuelve una copia de los records no bloqueados.
func eligible(props []domain.PropRecord) []domain.PropRecord {
	out := make([]domain.PropRecord, 0, len(props))
	for _, p := range props {
		if !p.Blocked {
			out = append(out, p)
		}
	}
	return out
}

// sortCandidates ordena por confidence desc, tie-break |odds| desc.
func sortCandidates(props []domain.PropRecord) {
	sort.SliceStable(props, func(i, j int) bool {
		if props[i].Confidence != props[j].Confidence {
			return props[i].Confidence > props[j].Confidence
		}
		return domain.AbsOdds(props[i].Odds) > domain.AbsOdds(props[j].Odds)
	})
}
