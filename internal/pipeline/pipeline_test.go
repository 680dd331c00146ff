package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/propbot/internal/domain"
)

type fakeMemory struct {
	view     domain.HistoryView
	loadErr  error
	saveErr  error
	saved    []domain.Ticket
	lastCall []domain.Ticket
	saves    int
}

func (m *fakeMemory) LoadView(_ context.Context) (domain.HistoryView, error) {
	return m.view, m.loadErr
}

func (m *fakeMemory) SaveRun(_ context.Context, tickets, lastCall []domain.Ticket) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.saved = tickets
	m.lastCall = lastCall
	return nil
}

type fakePoster struct {
	posted []domain.Ticket
	err    error
}

func (p *fakePoster) PostTicket(_ context.Context, t domain.Ticket) error {
	if p.err != nil {
		return p.err
	}
	p.posted = append(p.posted, t)
	return nil
}

type fakeNarrator struct {
	text string
	err  error
}

func (n *fakeNarrator) Narrate(_ context.Context, _ domain.Ticket) (string, error) {
	return n.text, n.err
}

func runProps() []domain.PropRecord {
	far := time.Now().Add(6 * time.Hour)
	mk := func(player, team, propType, game string, odds int) domain.PropRecord {
		p := prop(player, propType, odds)
		p.Team = team
		p.GameKey = game
		p.GameStart = far
		p.BookCount = 4
		return p
	}
	return []domain.PropRecord{
		mk("LeBron James", "LAL", "Points", "LAL@BOS", 120),
		mk("Jayson Tatum", "BOS", "Rebounds", "BOS@MIA", 150),
		mk("Nikola Jokic", "DEN", "Assists", "DEN@PHX", 180),
	}
}

func TestPipelineRunProducesTickets(t *testing.T) {
	memory := &fakeMemory{}
	poster := &fakePoster{}
	p := New(DefaultConfig(), memory, poster, nil, nil)

	report, err := p.Run(context.Background(), runProps(), nil)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Scored)
	require.NotEmpty(t, report.Tickets)
	assert.Equal(t, 1, memory.saves)
	assert.Len(t, poster.posted, len(report.Tickets))
}

func TestPipelineSkipsMalformedRecords(t *testing.T) {
	memory := &fakeMemory{}
	p := New(DefaultConfig(), memory, nil, nil, nil)
	props := runProps()
	props[0].Player = ""

	report, err := p.Run(context.Background(), props, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Scored)
}

func TestPipelineDedupesUsedToday(t *testing.T) {
	props := runProps()
	memory := &fakeMemory{
		view: domain.HistoryView{
			UsedToday: map[string]bool{props[0].Key(): true},
		},
	}
	p := New(DefaultConfig(), memory, nil, nil, nil)

	report, err := p.Run(context.Background(), props, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Deduped)
	assert.Equal(t, 2, report.Scored)
}

func TestPipelineAbortsOnLoadError(t *testing.T) {
	memory := &fakeMemory{loadErr: errors.New("disk on fire")}
	p := New(DefaultConfig(), memory, nil, nil, nil)

	_, err := p.Run(context.Background(), runProps(), nil)

	require.Error(t, err)
	assert.Equal(t, 0, memory.saves)
}

func TestPipelineAbortsOnSaveError(t *testing.T) {
	memory := &fakeMemory{saveErr: errors.New("disk full")}
	poster := &fakePoster{}
	p := New(DefaultConfig(), memory, poster, nil, nil)

	_, err := p.Run(context.Background(), runProps(), nil)

	// Falla del store = run abortado: nada se postea.
	require.Error(t, err)
	assert.Empty(t, poster.posted)
}

func TestPipelinePostFailureDoesNotFailRun(t *testing.T) {
	memory := &fakeMemory{}
	poster := &fakePoster{err: errors.New("webhook 500")}
	p := New(DefaultConfig(), memory, poster, nil, nil)

	report, err := p.Run(context.Background(), runProps(), nil)

	require.NoError(t, err)
	assert.NotZero(t, report.PostFails)
	assert.Equal(t, 1, memory.saves)
}

func TestPipelineNarratorFailureTolerated(t *testing.T) {
	memory := &fakeMemory{}
	narrator := &fakeNarrator{err: errors.New("llm timeout")}
	p := New(DefaultConfig(), memory, nil, narrator, nil)

	report, err := p.Run(context.Background(), runProps(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Narrated)
	require.NotEmpty(t, report.Tickets)
	assert.Empty(t, report.Tickets[0].Narrative)
}

func TestPipelineNarratesTickets(t *testing.T) {
	memory := &fakeMemory{}
	narrator := &fakeNarrator{text: "three legs, all value spots tonight"}
	p := New(DefaultConfig(), memory, nil, narrator, nil)

	report, err := p.Run(context.Background(), runProps(), nil)

	require.NoError(t, err)
	require.NotEmpty(t, report.Tickets)
	assert.Equal(t, len(report.Tickets), report.Narrated)
	assert.NotEmpty(t, report.Tickets[0].Narrative)
}

func TestPipelineLastCallPartition(t *testing.T) {
	props := runProps()
	props[0].GameStart = time.Now().Add(25 * time.Minute)
	memory := &fakeMemory{}
	p := New(DefaultConfig(), memory, nil, nil, nil)

	report, err := p.Run(context.Background(), props, nil)

	require.NoError(t, err)
	for _, ticket := range report.Tickets {
		assert.False(t, ticket.LastCall)
	}
	for _, ticket := range report.LastCall {
		assert.True(t, ticket.LastCall)
	}
	assert.Equal(t, memory.lastCall, report.LastCall)
}

func TestPipelineBlockedPropsNeverTicketed(t *testing.T) {
	props := runProps()
	memory := &fakeMemory{
		view: domain.HistoryView{
			RedFlags: map[string]bool{props[0].Key(): true},
		},
	}
	p := New(DefaultConfig(), memory, nil, nil, nil)

	report, err := p.Run(context.Background(), props, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Blocked)
	for _, ticket := range append(report.Tickets, report.LastCall...) {
		for _, s := range ticket.Selections {
			assert.NotEqual(t, props[0].Key(), s.Key())
		}
	}
}
