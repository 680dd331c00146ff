package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// GradeReport resume una pasada de gradeo sobre los tickets de un día.
type GradeReport struct {
	Graded   int // tickets que llegaron a estado terminal en esta pasada
	Pending  int // tickets que siguen PENDING (legs sin actual)
	Terminal int // tickets que ya estaban terminales (no se tocan)
	Wins     int
	Losses   int
	Pushes   int
}

// GradeDay gradea todos los tickets pendientes del día contra los valores
// reales. actuals mapea la clave (player, prop_type) al stat final del
// jugador. Idempotente: tickets y legs terminales no se re-gradean, y una
// segunda pasada con los mismos actuals no cambia nada.
func (t *Tracker) GradeDay(ctx context.Context, day string, actuals map[string]float64) (GradeReport, error) {
	var report GradeReport

	keys, err := t.store.List(ctx, ticketPrefix+day+"/")
	if err != nil {
		return report, fmt.Errorf("tracker.GradeDay: list tickets: %w", err)
	}

	var feedback []domain.Ticket
	for _, key := range keys {
		if key == indexKey(day) {
			continue
		}
		var ticket domain.Ticket
		found, err := t.store.Get(ctx, key, &ticket)
		if err != nil {
			return report, fmt.Errorf("tracker.GradeDay: read ticket: %w", err)
		}
		if !found {
			continue
		}
		if ticket.Result.Terminal() {
			report.Terminal++
			continue
		}

		graded := gradeTicket(&ticket, actuals)
		if err := t.store.Put(ctx, key, ticket); err != nil {
			return report, fmt.Errorf("tracker.GradeDay: put ticket %s: %w", ticket.ID, err)
		}

		switch ticket.Result {
		case domain.ResultWin:
			report.Graded++
			report.Wins++
		case domain.ResultLoss:
			report.Graded++
			report.Losses++
		case domain.ResultPush:
			report.Graded++
			report.Pushes++
		default:
			report.Pending++
		}
		if len(graded.Selections) > 0 {
			feedback = append(feedback, graded)
		}
	}

	if len(feedback) > 0 {
		if err := t.applyFeedback(ctx, day, feedback); err != nil {
			return report, err
		}
	}

	slog.Info("grading pass complete",
		"day", day,
		"graded", report.Graded,
		"pending", report.Pending,
		"wins", report.Wins,
		"losses", report.Losses,
		"pushes", report.Pushes,
	)
	return report, nil
}

// gradeTicket gradea in-place los legs sin resultado y deriva el resultado
// del ticket. Devuelve un ticket-sombra con solo los legs que transicionaron
// a terminal en esta pasada (el input del feedback loop) y el resultado que
// alcanzó el ticket; Result queda vacío si el ticket sigue pendiente.
func gradeTicket(ticket *domain.Ticket, actuals map[string]float64) domain.Ticket {
	graded := domain.Ticket{ID: ticket.ID, Stake: ticket.Stake, Payout: ticket.Payout}
	legs := make([]domain.Result, 0, len(ticket.Selections))
	var missing []string

	for i := range ticket.Selections {
		s := &ticket.Selections[i]
		if s.Result.Terminal() {
			legs = append(legs, s.Result)
			continue
		}
		actual, ok := actuals[s.Key()]
		if !ok {
			s.Result = domain.ResultUnknown
			legs = append(legs, domain.ResultUnknown)
			missing = append(missing, s.Key())
			continue
		}
		s.Actual = actual
		s.Result = domain.GradeSelection(s.Side, s.Line, actual)
		legs = append(legs, s.Result)
		graded.Selections = append(graded.Selections, *s)
	}

	ticket.Result = domain.CombineLegResults(legs)
	if len(missing) > 0 {
		slog.Warn("grading ambiguity: no actual value for legs",
			"ticket_id", ticket.ID,
			"keys", strings.Join(missing, ", "),
		)
	}
	if ticket.Result.Terminal() {
		graded.Result = ticket.Result
	}
	return graded
}
