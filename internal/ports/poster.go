package ports

import (
	"context"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// Poster publica tickets armados en el sink externo (webhook de Discord).
// Una falla de entrega se loguea y no se reintenta desde el pipeline;
// la política de retry, si existe, vive en la implementación.
type Poster interface {
	PostTicket(ctx context.Context, ticket domain.Ticket) error
}

// Narrator genera el texto explicativo de un ticket (LLM).
// Es enriquecimiento opcional: una falla nunca invalida el ticket.
type Narrator interface {
	Narrate(ctx context.Context, ticket domain.Ticket) (string, error)
}

// Notifier presenta los tickets del run al operador (consola).
type Notifier interface {
	// NotifyTickets muestra los tickets armados, mejores primero.
	NotifyTickets(ctx context.Context, tickets []domain.Ticket) error
}
