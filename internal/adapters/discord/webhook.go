// Package discord publica tickets en un webhook de Discord. La política de
// retry vive acá: el orquestador loguea la falla y sigue, no reintenta.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/propbot/internal/domain"
)

const (
	// Discord limita webhooks a ~30 req/min por canal.
	requestsPerMin  = 25
	maxElapsedRetry = 30 * time.Second
)

// Colores de embed por bucket de confidence.
var bucketColors = map[string]int{
	domain.BucketElite:    0x2ecc71, // verde
	domain.BucketReliable: 0x3498db, // azul
	domain.BucketPlayable: 0xf1c40f, // amarillo
	domain.BucketFade:     0x95a5a6, // gris
}

// Webhook implementa ports.Poster contra un webhook de Discord.
type Webhook struct {
	http    *http.Client
	url     string
	limiter *rate.Limiter
}

// NewWebhook crea un Webhook para la URL dada.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		http:    &http.Client{Timeout: 10 * time.Second},
		url:     url,
		limiter: rate.NewLimiter(rate.Every(time.Minute/requestsPerMin), 2),
	}
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// PostTicket publica un ticket como embed. Reintenta con backoff exponencial
// ante errores transitorios; los 4xx son permanentes y cortan de una.
func (w *Webhook) PostTicket(ctx context.Context, ticket domain.Ticket) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord.PostTicket: rate limiter: %w", err)
	}

	body, err := json.Marshal(webhookPayload{Embeds: []embed{buildEmbed(ticket)}})
	if err != nil {
		return fmt.Errorf("discord.PostTicket: encode: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("webhook status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("webhook rejected: %d %s", resp.StatusCode, string(msg)))
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = maxElapsedRetry
	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return fmt.Errorf("discord.PostTicket %s: %w", ticket.ID, err)
	}
	return nil
}

func buildEmbed(t domain.Ticket) embed {
	bucket := domain.ConfidenceBucket(t.ConfidenceFloor())

	title := fmt.Sprintf("%d-leg parlay — %s", t.Legs(), bucket)
	if t.Kind == domain.KindSingle {
		title = fmt.Sprintf("Single — %s", bucket)
	}
	if t.LastCall {
		title = "⏰ LAST CALL — " + title
	}

	fields := make([]embedField, 0, len(t.Selections)+1)
	for _, s := range t.Selections {
		fields = append(fields, embedField{
			Name: fmt.Sprintf("%s %s %.1f %s", s.Player, s.Side, s.Line, s.PropType),
			Value: fmt.Sprintf("%s · %s · conf %.2f",
				formatOdds(s.Odds), s.Platform, s.Confidence),
			Inline: false,
		})
	}
	fields = append(fields, embedField{
		Name:   "Stake / Payout",
		Value:  fmt.Sprintf("$%.2f → $%.2f", t.Stake, t.Payout),
		Inline: true,
	})

	return embed{
		Title:       title,
		Description: strings.TrimSpace(t.Narrative),
		Color:       bucketColors[bucket],
		Fields:      fields,
	}
}

func formatOdds(odds int) string {
	if odds > 0 {
		return fmt.Sprintf("+%d", odds)
	}
	return fmt.Sprintf("%d", odds)
}
