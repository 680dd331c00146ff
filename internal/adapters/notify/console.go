// Package notify presenta el output del run al operador por consola.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/propbot/internal/domain"
	"github.com/alejandrodnm/propbot/internal/tracker"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyTickets imprime los tickets del run en el modo configurado.
func (c *Console) NotifyTickets(_ context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		fmt.Fprintf(c.out, "[%s] no tickets assembled\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(tickets)
	} else {
		c.printCompact(tickets)
	}
	return nil
}

// printCompact imprime lo esencial en una línea por run.
func (c *Console) printCompact(tickets []domain.Ticket) {
	now := time.Now().Format("15:04:05")
	parlays, singles, lastCall := countByKind(tickets)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d tickets → P:%d S:%d lc:%d", now, len(tickets), parlays, singles, lastCall)

	shown := 0
	for _, t := range tickets {
		if shown >= 3 {
			break
		}
		fmt.Fprintf(&sb, " | %s %dleg %s $%.0f→$%.2f",
			kindIcon(t), t.Legs(),
			domain.ConfidenceBucket(t.ConfidenceFloor()),
			t.Stake, t.Payout)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa: un ticket por bloque, un leg por fila.
func (c *Console) printFull(tickets []domain.Ticket) {
	now := time.Now().Format("15:04:05")
	parlays, singles, lastCall := countByKind(tickets)
	fmt.Fprintf(c.out, "\n[%s] %d tickets — parlays:%d singles:%d last-call:%d\n",
		now, len(tickets), parlays, singles, lastCall)

	table := tablewriter.NewWriter(c.out)
	table.Header("Ticket", "Leg", "Pick", "Odds", "Conf", "Bucket", "Book", "Stake→Payout")

	for i, t := range tickets {
		label := fmt.Sprintf("#%d %s", i+1, kindIcon(t))
		payout := fmt.Sprintf("$%.0f→$%.2f", t.Stake, t.Payout)
		for j, s := range t.Selections {
			ticketCol, payoutCol := "", ""
			if j == 0 {
				ticketCol, payoutCol = label, payout
			}
			table.Append(
				ticketCol,
				fmt.Sprintf("%d", j+1),
				fmt.Sprintf("%s %s %.1f %s", s.Player, s.Side, s.Line, s.PropType),
				formatOdds(s.Odds),
				fmt.Sprintf("%.2f", s.Confidence),
				domain.ConfidenceBucket(s.Confidence),
				s.Platform,
				payoutCol,
			)
		}
	}

	table.Render()

	for _, t := range tickets {
		if t.Narrative != "" {
			fmt.Fprintf(c.out, "  %s: %s\n", kindIcon(t), t.Narrative)
		}
	}
}

// PrintPerformance imprime el resumen acumulado de resultados.
func (c *Console) PrintPerformance(perf tracker.Performance) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Wins", "Losses", "Pushes", "Win rate", "Staked", "Returned", "ROI")
	table.Append(
		fmt.Sprintf("%d", perf.Wins),
		fmt.Sprintf("%d", perf.Losses),
		fmt.Sprintf("%d", perf.Pushes),
		fmt.Sprintf("%.1f%%", perf.WinRate()*100),
		fmt.Sprintf("$%.2f", perf.Staked),
		fmt.Sprintf("$%.2f", perf.Returned),
		fmt.Sprintf("%+.1f%%", perf.ROI()*100),
	)
	table.Render()
}

func countByKind(tickets []domain.Ticket) (parlays, singles, lastCall int) {
	for _, t := range tickets {
		switch t.Kind {
		case domain.KindParlay:
			parlays++
		case domain.KindSingle:
			singles++
		}
		if t.LastCall {
			lastCall++
		}
	}
	return
}

func kindIcon(t domain.Ticket) string {
	icon := "[P]"
	if t.Kind == domain.KindSingle {
		icon = "[S]"
	}
	if t.LastCall {
		icon = "[LC]" + icon
	}
	return icon
}

func formatOdds(odds int) string {
	if odds > 0 {
		return fmt.Sprintf("+%d", odds)
	}
	return fmt.Sprintf("%d", odds)
}
