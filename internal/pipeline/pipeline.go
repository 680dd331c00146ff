package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/propbot/internal/domain"
	"github.com/alejandrodnm/propbot/internal/ports"
)

// Memory es la vista del tracker que necesita el pipeline: cargar el
// feedback histórico antes del run y persistir el resultado al final.
// La escritura es un checkpoint único — el output se arma completo en
// memoria y se escribe una vez por unidad lógica.
type Memory interface {
	LoadView(ctx context.Context) (domain.HistoryView, error)
	SaveRun(ctx context.Context, tickets, lastCall []domain.Ticket) error
}

// Report resume un run completo del pipeline.
type Report struct {
	Tickets   []domain.Ticket // tickets posteables
	LastCall  []domain.Ticket // cola last-call (no se postean normal)
	Scored    int             // props que pasaron el intake
	Skipped   int             // records malformados excluidos
	Deduped   int             // records ya usados hoy
	Removed   int             // eliminados por el trap radar
	Blocked   int             // bloqueados por filtros (quedan como audit trail)
	Narrated  int             // tickets con narrativa generada
	PostFails int             // fallas de entrega (logueadas, sin retry)
}

// Pipeline es el orquestador: corre los stages en orden fijo una vez por
// ciclo, arma tickets, audita, persiste y postea. Errores de stage degradan
// a "sin ajuste"; solo una falla del store aborta el run.
type Pipeline struct {
	cfg      Config
	scorer   *Scorer
	stages   []Stage
	memory   Memory
	poster   ports.Poster
	narrator ports.Narrator
	notifier ports.Notifier
	now      func() time.Time
}

// New crea un Pipeline con todas las dependencias inyectadas.
// poster, narrator y notifier pueden ser nil (dry-run).
func New(cfg Config, memory Memory, poster ports.Poster, narrator ports.Narrator, notifier ports.Notifier) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		scorer:   NewScorer(cfg),
		stages:   buildStages(cfg),
		memory:   memory,
		poster:   poster,
		narrator: narrator,
		notifier: notifier,
		now:      time.Now,
	}
}

// Run procesa un snapshot de props hasta el final. Las llamadas de red para
// conseguir props/señales ya ocurrieron: acá todo es input resuelto.
// Un run fallido no produce tickets nuevos y deja el estado previo intacto.
func (p *Pipeline) Run(ctx context.Context, props []domain.PropRecord, signals map[string]domain.TeamSignal) (Report, error) {
	start := p.now()
	var report Report

	view, err := p.memory.LoadView(ctx)
	if err != nil {
		return report, fmt.Errorf("pipeline.Run: load history: %w", err)
	}

	run := &Run{Signals: signals, History: view}

	// 1. Intake: validación de forma + no-dup del día
	for _, prop := range props {
		if !prop.Valid() {
			report.Skipped++
			slog.Warn("malformed prop record skipped",
				"player", prop.Player,
				"prop_type", prop.PropType,
			)
			continue
		}
		if view.UsedToday[prop.Key()] {
			report.Deduped++
			continue
		}
		run.Props = append(run.Props, prop)
	}
	run.Skipped = report.Skipped

	// 2. Scoring baseline + ajustes históricos
	run.Props = p.scorer.Score(run.Props, view)
	report.Scored = len(run.Props)

	// 3. Context filters en orden fijo
	for _, stage := range p.stages {
		stage.Apply(run)
		slog.Debug("stage applied", "stage", stage.Name(), "props", len(run.Props))
	}
	report.Removed = run.Removed
	for _, prop := range run.Props {
		if prop.Blocked {
			report.Blocked++
		}
	}

	// 4. Armado de tickets: parlays + singles
	assembler := &Assembler{cfg: p.cfg, now: p.now}
	tickets := assembler.Assemble(run.Props)
	tickets = append(tickets, assembler.AssembleSingles(run.Props)...)

	// 5. Audits post-assembly
	suppressed := func(key string) bool {
		return view.TightMissSuppressed[key] || view.RedFlags[key]
	}
	for _, audit := range buildAudits(p.cfg, suppressed, p.now) {
		tickets = audit.Audit(tickets)
	}

	for _, t := range tickets {
		if t.LastCall {
			report.LastCall = append(report.LastCall, t)
		} else {
			report.Tickets = append(report.Tickets, t)
		}
	}

	// 6. Narrativa opcional — una falla nunca invalida el ticket
	p.narrate(ctx, report.Tickets)
	for _, t := range report.Tickets {
		if t.Narrative != "" {
			report.Narrated++
		}
	}

	// 7. Checkpoint: persistir todo de una (falla del store = run abortado)
	if err := p.memory.SaveRun(ctx, report.Tickets, report.LastCall); err != nil {
		return Report{}, fmt.Errorf("pipeline.Run: save run: %w", err)
	}

	// 8. Posteo: la falla de entrega se loguea, el retry es del collaborator
	p.post(ctx, report.Tickets, &report)

	if p.notifier != nil {
		all := append(append([]domain.Ticket{}, report.Tickets...), report.LastCall...)
		if err := p.notifier.NotifyTickets(ctx, all); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("pipeline run complete",
		"tickets", len(report.Tickets),
		"last_call", len(report.LastCall),
		"scored", report.Scored,
		"skipped", report.Skipped,
		"deduped", report.Deduped,
		"blocked", report.Blocked,
		"elapsed", p.now().Sub(start).Round(time.Millisecond),
	)
	return report, nil
}

func (p *Pipeline) narrate(ctx context.Context, tickets []domain.Ticket) {
	if p.narrator == nil {
		return
	}
	for i := range tickets {
		text, err := p.narrator.Narrate(ctx, tickets[i])
		if err != nil {
			slog.Warn("narrative generation failed", "ticket_id", tickets[i].ID, "err", err)
			continue
		}
		tickets[i].Narrative = text
	}
}

func (p *Pipeline) post(ctx context.Context, tickets []domain.Ticket, report *Report) {
	if p.poster == nil {
		return
	}
	for _, t := range tickets {
		if err := p.poster.PostTicket(ctx, t); err != nil {
			report.PostFails++
			slog.Warn("ticket delivery failed", "ticket_id", t.ID, "err", err)
		}
	}
}
