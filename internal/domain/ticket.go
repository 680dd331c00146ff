package domain

import (
	"math"
	"time"
)

// TicketKind distingue parlays multi-leg de tickets de un solo leg.
// Un single NO es un parlay degenerado: se arma por un camino distinto.
type TicketKind string

const (
	KindParlay TicketKind = "parlay"
	KindSingle TicketKind = "single"
)

// Result es el estado de gradeo de un ticket o de un leg individual.
type Result string

const (
	ResultPending Result = "PENDING"
	ResultWin     Result = "WIN"
	ResultLoss    Result = "LOSS"
	ResultPush    Result = "PUSH"
	// ResultUnknown solo aplica a legs: no llegó actual_value al gradear.
	ResultUnknown Result = "UNKNOWN"
)

// Terminal devuelve true si el resultado ya no puede cambiar.
func (r Result) Terminal() bool {
	return r == ResultWin || r == ResultLoss || r == ResultPush
}

// Selection es un leg de un ticket: el prop record seleccionado más su gradeo.
type Selection struct {
	PropRecord
	Result Result
	Actual float64 // valor real del stat, válido solo si Result != PENDING/UNKNOWN
}

// Ticket es un bundle de selections que se gradea como unidad.
type Ticket struct {
	ID         string
	Kind       TicketKind
	CreatedAt  time.Time
	Selections []Selection
	Result     Result
	LastCall   bool   // algún leg arranca en 20-30 min: cola aparte, no se postea normal
	Narrative  string // texto generado, enriquecimiento opcional
	Stake      float64
	Payout     float64
}

// ConfidenceFloor devuelve la confidence mínima entre las selections.
func (t Ticket) ConfidenceFloor() float64 {
	if len(t.Selections) == 0 {
		return 0
	}
	floor := math.Inf(1)
	for _, s := range t.Selections {
		if s.Confidence < floor {
			floor = s.Confidence
		}
	}
	return floor
}

// Legs devuelve la cantidad de selections.
func (t Ticket) Legs() int {
	return len(t.Selections)
}

// HasKey devuelve true si alguna selection tiene la clave (player, prop_type).
func (t Ticket) HasKey(key string) bool {
	for _, s := range t.Selections {
		if s.Key() == key {
			return true
		}
	}
	return false
}

// HasGame devuelve true si alguna selection pertenece al juego dado.
func (t Ticket) HasGame(gameKey string) bool {
	for _, s := range t.Selections {
		if s.GameKey == gameKey {
			return true
		}
	}
	return false
}

// MinutesToFirstLock devuelve los minutos hasta el leg que arranca primero.
// Devuelve +Inf si ningún leg tiene hora de inicio.
func (t Ticket) MinutesToFirstLock(now time.Time) float64 {
	mins := math.Inf(1)
	for _, s := range t.Selections {
		if s.GameStart.IsZero() {
			continue
		}
		m := s.GameStart.Sub(now).Minutes()
		if m < mins {
			mins = m
		}
	}
	return mins
}
