// Package tracker mantiene el estado histórico del pipeline sobre el Record
// Store: tickets del día, claves usadas, historia por jugador, supresiones y
// la calibración por tier. Es el único paquete que conoce el layout de claves.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alejandrodnm/propbot/internal/domain"
	"github.com/alejandrodnm/propbot/internal/ports"
)

// Layout de claves del Record Store. Documentos JSON, last-write-wins.
const (
	keyHistory     = "history/players"
	keyTightMiss   = "tightmiss/log"
	keyRedFlags    = "redflags/keys"
	keyOpponents   = "opponents/losses"
	keyPerformance = "performance/summary"
	keyCalibration = "calibration/tiers"
	usedPrefix     = "used/"
	ticketPrefix   = "tickets/"
)

// Umbrales del feedback loop.
const (
	toughOpponentLimit = 7  // equipos en la lista de oponentes duros
	tightMissLimit     = 3  // tight misses en ventana → supresión
	tightMissWindow    = 7  // días
	redFlagStreak      = -3 // 3 derrotas seguidas → red flag
	redFlagLift        = 2  // 2 victorias seguidas → se levanta
)

// Tracker implementa la memoria del pipeline y el gradeo de resultados.
type Tracker struct {
	store ports.RecordStore
	now   func() time.Time
}

// New crea un Tracker sobre el store dado.
func New(store ports.RecordStore) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Day formatea la fecha con la que se arman las claves por día.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func ticketKey(day, id string) string {
	return ticketPrefix + day + "/" + id
}

func indexKey(day string) string {
	return ticketPrefix + day + "/index"
}

// LoadView arma el snapshot de feedback que consume un run del pipeline.
// Claves ausentes degradan a vistas vacías; solo una falla del store es error.
func (t *Tracker) LoadView(ctx context.Context) (domain.HistoryView, error) {
	var view domain.HistoryView

	players := make(map[string]domain.PlayerHistory)
	if _, err := t.store.Get(ctx, keyHistory, &players); err != nil {
		return view, fmt.Errorf("tracker.LoadView: history: %w", err)
	}
	view.Players = players

	used := make(map[string]bool)
	if _, err := t.store.Get(ctx, usedPrefix+Day(t.now()), &used); err != nil {
		return view, fmt.Errorf("tracker.LoadView: used keys: %w", err)
	}
	view.UsedToday = used

	redFlags := make(map[string]bool)
	if _, err := t.store.Get(ctx, keyRedFlags, &redFlags); err != nil {
		return view, fmt.Errorf("tracker.LoadView: red flags: %w", err)
	}
	view.RedFlags = redFlags

	var misses []tightMissEntry
	if _, err := t.store.Get(ctx, keyTightMiss, &misses); err != nil {
		return view, fmt.Errorf("tracker.LoadView: tight misses: %w", err)
	}
	view.TightMissSuppressed = suppressedKeys(misses, t.now())

	opponents := make(map[string]int)
	if _, err := t.store.Get(ctx, keyOpponents, &opponents); err != nil {
		return view, fmt.Errorf("tracker.LoadView: opponents: %w", err)
	}
	view.ToughOpponents = toughOpponents(opponents, toughOpponentLimit)

	var calib calibrationDoc
	if _, err := t.store.Get(ctx, keyCalibration, &calib); err != nil {
		return view, fmt.Errorf("tracker.LoadView: calibration: %w", err)
	}
	view.TierAdjust = calib.Adjust

	return view, nil
}

// SaveRun persiste el output de un run: un documento por ticket, el índice
// del día, y las claves usadas para la regla no-dup. Los documentos se arman
// completos en memoria; cualquier falla del store corta acá y el run aborta.
func (t *Tracker) SaveRun(ctx context.Context, tickets, lastCall []domain.Ticket) error {
	day := Day(t.now())
	all := make([]domain.Ticket, 0, len(tickets)+len(lastCall))
	all = append(all, tickets...)
	all = append(all, lastCall...)

	used := make(map[string]bool)
	if _, err := t.store.Get(ctx, usedPrefix+day, &used); err != nil {
		return fmt.Errorf("tracker.SaveRun: read used keys: %w", err)
	}

	var index []string
	if _, err := t.store.Get(ctx, indexKey(day), &index); err != nil {
		return fmt.Errorf("tracker.SaveRun: read index: %w", err)
	}

	for _, ticket := range all {
		index = append(index, ticket.ID)
		for _, s := range ticket.Selections {
			used[s.Key()] = true
		}
	}

	for _, ticket := range all {
		if err := t.store.Put(ctx, ticketKey(day, ticket.ID), ticket); err != nil {
			return fmt.Errorf("tracker.SaveRun: put ticket %s: %w", ticket.ID, err)
		}
	}
	if err := t.store.Put(ctx, indexKey(day), index); err != nil {
		return fmt.Errorf("tracker.SaveRun: put index: %w", err)
	}
	if err := t.store.Put(ctx, usedPrefix+day, used); err != nil {
		return fmt.Errorf("tracker.SaveRun: put used keys: %w", err)
	}
	return nil
}

// PendingGames devuelve los game keys de los tickets aún no terminales del
// día, para saber qué partidos hay que consultarle al proveedor de stats.
func (t *Tracker) PendingGames(ctx context.Context, day string) ([]string, error) {
	keys, err := t.store.List(ctx, ticketPrefix+day+"/")
	if err != nil {
		return nil, fmt.Errorf("tracker.PendingGames: list tickets: %w", err)
	}

	seen := make(map[string]bool)
	var games []string
	for _, key := range keys {
		if key == indexKey(day) {
			continue
		}
		var ticket domain.Ticket
		found, err := t.store.Get(ctx, key, &ticket)
		if err != nil {
			return nil, fmt.Errorf("tracker.PendingGames: read ticket: %w", err)
		}
		if !found || ticket.Result.Terminal() {
			continue
		}
		for _, s := range ticket.Selections {
			if s.GameKey != "" && !seen[s.GameKey] {
				seen[s.GameKey] = true
				games = append(games, s.GameKey)
			}
		}
	}
	return games, nil
}

// Performance devuelve el resumen acumulado de resultados.
func (t *Tracker) Performance(ctx context.Context) (Performance, error) {
	var perf Performance
	if _, err := t.store.Get(ctx, keyPerformance, &perf); err != nil {
		return perf, fmt.Errorf("tracker.Performance: %w", err)
	}
	return perf, nil
}

// toughOpponents devuelve los `limit` equipos con más derrotas acumuladas.
func toughOpponents(losses map[string]int, limit int) map[string]bool {
	if len(losses) == 0 {
		return map[string]bool{}
	}
	type entry struct {
		team   string
		losses int
	}
	ranked := make([]entry, 0, len(losses))
	for team, n := range losses {
		ranked = append(ranked, entry{team, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].losses != ranked[j].losses {
			return ranked[i].losses > ranked[j].losses
		}
		return ranked[i].team < ranked[j].team
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	tough := make(map[string]bool, len(ranked))
	for _, e := range ranked {
		tough[e.team] = true
	}
	return tough
}
