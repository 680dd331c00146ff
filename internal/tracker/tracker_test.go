package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// memStore modela el Record Store en memoria con semántica JSON real.
type memStore struct {
	docs    map[string][]byte
	failing bool
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string, out any) (bool, error) {
	if s.failing {
		return false, errors.New("store down")
	}
	body, ok := s.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(body, out)
}

func (s *memStore) Put(_ context.Context, key string, doc any) error {
	if s.failing {
		return errors.New("store down")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.docs[key] = body
	return nil
}

func (s *memStore) List(_ context.Context, prefix string) ([]string, error) {
	if s.failing {
		return nil, errors.New("store down")
	}
	var keys []string
	for key := range s.docs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memStore) Close() error { return nil }

func fixedTracker(store *memStore, now time.Time) *Tracker {
	t := New(store)
	t.now = func() time.Time { return now }
	return t
}

func selection(player, propType string, side domain.PickSide, line float64) domain.Selection {
	return domain.Selection{
		PropRecord: domain.PropRecord{
			Player:     player,
			Team:       "LAL",
			Opponent:   "BOS",
			PropType:   propType,
			Sport:      "NBA",
			GameKey:    "LAL@BOS",
			Line:       line,
			Side:       side,
			Odds:       -110,
			Platform:   "draftkings",
			Confidence: 0.72,
		},
		Result: domain.ResultPending,
	}
}

func pendingTicket(id string, selections ...domain.Selection) domain.Ticket {
	return domain.Ticket{
		ID:         id,
		Kind:       domain.KindParlay,
		CreatedAt:  time.Now().UTC(),
		Selections: selections,
		Result:     domain.ResultPending,
		Stake:      10,
		Payout:     36.45,
	}
}

func TestSaveRunMarksKeysUsed(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	ticket := pendingTicket("t1",
		selection("LeBron James", "Points", domain.SideOver, 24.5),
		selection("Jayson Tatum", "Rebounds", domain.SideOver, 8.5),
	)

	require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))

	view, err := tr.LoadView(context.Background())
	require.NoError(t, err)
	assert.True(t, view.UsedToday[domain.PropKey("LeBron James", "Points")])
	assert.True(t, view.UsedToday[domain.PropKey("Jayson Tatum", "Rebounds")])
}

func TestSaveRunWritesTicketAndIndex(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	normal := pendingTicket("t1", selection("A", "Points", domain.SideOver, 10.5))
	late := pendingTicket("t2", selection("B", "Assists", domain.SideOver, 5.5))
	late.LastCall = true

	require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{normal}, []domain.Ticket{late}))

	keys, err := store.List(context.Background(), "tickets/2026-03-14/")
	require.NoError(t, err)
	assert.Contains(t, keys, "tickets/2026-03-14/t1")
	assert.Contains(t, keys, "tickets/2026-03-14/t2")
	assert.Contains(t, keys, "tickets/2026-03-14/index")

	var index []string
	found, err := store.Get(context.Background(), "tickets/2026-03-14/index", &index)
	require.NoError(t, err)
	require.True(t, found)
	assert.ElementsMatch(t, []string{"t1", "t2"}, index)
}

func TestSaveRunStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failing = true
	tr := fixedTracker(store, time.Now())

	err := tr.SaveRun(context.Background(), []domain.Ticket{
		pendingTicket("t1", selection("A", "Points", domain.SideOver, 10.5)),
	}, nil)

	require.Error(t, err)
	assert.Empty(t, store.docs)
}

func TestGradeDayWin(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	ticket := pendingTicket("t1",
		selection("LeBron James", "Points", domain.SideOver, 24.5),
		selection("Jayson Tatum", "Rebounds", domain.SideUnder, 8.5),
	)
	require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))

	report, err := tr.GradeDay(context.Background(), "2026-03-14", map[string]float64{
		domain.PropKey("LeBron James", "Points"):    31,
		domain.PropKey("Jayson Tatum", "Rebounds"): 6,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Graded)
	assert.Equal(t, 1, report.Wins)

	var stored domain.Ticket
	found, err := store.Get(context.Background(), "tickets/2026-03-14/t1", &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.ResultWin, stored.Result)
	assert.Equal(t, domain.ResultWin, stored.Selections[0].Result)
	assert.InDelta(t, 31.0, stored.Selections[0].Actual, 1e-9)
}

func TestGradeDayPushNeverPromotedToWin(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	ticket := pendingTicket("t1",
		selection("A", "Points", domain.SideOver, 20),
		selection("B", "Rebounds", domain.SideOver, 8.5),
	)
	require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))

	report, err := tr.GradeDay(context.Background(), "2026-03-14", map[string]float64{
		domain.PropKey("A", "Points"):   20, // igualdad exacta
		domain.PropKey("B", "Rebounds"): 12,
	})

	require.NoError(t, err)
	// Push + win = PUSH del ticket, nunca WIN.
	assert.Equal(t, 1, report.Pushes)
	assert.Equal(t, 0, report.Wins)
}

func TestGradeDayMissingActualStaysPending(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	ticket := pendingTicket("t1",
		selection("A", "Points", domain.SideOver, 20.5),
		selection("B", "Rebounds", domain.SideOver, 8.5),
	)
	require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))

	report, err := tr.GradeDay(context.Background(), "2026-03-14", map[string]float64{
		domain.PropKey("A", "Points"): 25,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 0, report.Graded)

	var stored domain.Ticket
	_, err = store.Get(context.Background(), "tickets/2026-03-14/t1", &stored)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultPending, stored.Result)
	assert.Equal(t, domain.ResultUnknown, stored.Selections[1].Result)
}

func TestGradeDayLossDecidesDespiteUnknown(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	ticket := pendingTicket("t1",
		selection("A", "Points", domain.SideOver, 20.5),
		selection("B", "Rebounds", domain.SideOver, 8.5),
	)
	require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))

	report, err := tr.GradeDay(context.Background(), "2026-03-14", map[string]float64{
		domain.PropKey("A", "Points"): 12, // LOSS
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Losses)
}

func TestGradeDayIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	ticket := pendingTicket("t1", selection("A", "Points", domain.SideOver, 20.5))
	ticket.Kind = domain.KindSingle
	require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))
	actuals := map[string]float64{domain.PropKey("A", "Points"): 25}

	first, err := tr.GradeDay(context.Background(), "2026-03-14", actuals)
	require.NoError(t, err)
	second, err := tr.GradeDay(context.Background(), "2026-03-14", actuals)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Graded)
	assert.Equal(t, 0, second.Graded)
	assert.Equal(t, 1, second.Terminal)

	// El feedback tampoco se duplica.
	perf, err := tr.Performance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, perf.Wins)
}

func TestGradeDayUpdatesHistoryAndOpponents(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	ticket := pendingTicket("t1",
		selection("A", "Points", domain.SideOver, 20.5),
		selection("B", "Rebounds", domain.SideOver, 8.5),
	)
	require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))

	_, err := tr.GradeDay(context.Background(), "2026-03-14", map[string]float64{
		domain.PropKey("A", "Points"):   25, // WIN
		domain.PropKey("B", "Rebounds"): 4,  // LOSS contra BOS
	})
	require.NoError(t, err)

	view, err := tr.LoadView(context.Background())
	require.NoError(t, err)
	winner, ok := view.PlayerStats(domain.PropKey("A", "Points"))
	require.True(t, ok)
	assert.Equal(t, 1, winner.Streak)
	loser, ok := view.PlayerStats(domain.PropKey("B", "Rebounds"))
	require.True(t, ok)
	assert.Equal(t, -1, loser.Streak)
	assert.True(t, view.ToughOpponents["BOS"])
}

func TestRedFlagRaisedAfterThreeStraightLosses(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	key := domain.PropKey("A", "Points")

	for day := 12; day <= 14; day++ {
		tr.now = func() time.Time {
			return time.Date(2026, 3, day, 23, 0, 0, 0, time.UTC)
		}
		ticket := pendingTicket("t"+string(rune('0'+day)), selection("A", "Points", domain.SideOver, 20.5))
		ticket.Kind = domain.KindSingle
		require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))
		_, err := tr.GradeDay(context.Background(), Day(tr.now()), map[string]float64{key: 10})
		require.NoError(t, err)
	}

	view, err := tr.LoadView(context.Background())
	require.NoError(t, err)
	assert.True(t, view.RedFlags[key])
}

func TestRedFlagLiftedAfterTwoStraightWins(t *testing.T) {
	now := time.Date(2026, 3, 20, 23, 0, 0, 0, time.UTC)
	store := newMemStore()
	tr := fixedTracker(store, now)
	key := domain.PropKey("A", "Points")

	grade := func(day int, actual float64) {
		tr.now = func() time.Time {
			return time.Date(2026, 3, day, 23, 0, 0, 0, time.UTC)
		}
		ticket := pendingTicket("t"+string(rune('a'+day)), selection("A", "Points", domain.SideOver, 20.5))
		ticket.Kind = domain.KindSingle
		require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))
		_, err := tr.GradeDay(context.Background(), Day(tr.now()), map[string]float64{key: actual})
		require.NoError(t, err)
	}

	for day := 10; day <= 12; day++ {
		grade(day, 10) // 3 LOSS → flag
	}
	grade(13, 30) // 1 WIN: todavía flaggeado
	view, err := tr.LoadView(context.Background())
	require.NoError(t, err)
	assert.True(t, view.RedFlags[key])

	grade(14, 30) // 2 WIN seguidos: se levanta
	view, err = tr.LoadView(context.Background())
	require.NoError(t, err)
	assert.False(t, view.RedFlags[key])
}

func TestTightMissSuppressionAfterThreeMisses(t *testing.T) {
	store := newMemStore()
	tr := fixedTracker(store, time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC))
	key := domain.PropKey("P", "Hits")

	for day := 12; day <= 14; day++ {
		tr.now = func() time.Time {
			return time.Date(2026, 3, day, 23, 0, 0, 0, time.UTC)
		}
		ticket := pendingTicket("t"+string(rune('0'+day)), selection("P", "Hits", domain.SideOver, 2))
		ticket.Kind = domain.KindSingle
		require.NoError(t, tr.SaveRun(context.Background(), []domain.Ticket{ticket}, nil))
		// Falla por exactamente 1: tight miss.
		_, err := tr.GradeDay(context.Background(), Day(tr.now()), map[string]float64{key: 1})
		require.NoError(t, err)
	}

	view, err := tr.LoadView(context.Background())
	require.NoError(t, err)
	assert.True(t, view.TightMissSuppressed[key])
}

func TestTightMissOutsideWindowIgnored(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	tr := fixedTracker(store, now)
	key := domain.PropKey("P", "Hits")

	// Dos misses viejos fuera de la ventana de 7 días + uno reciente.
	old := []tightMissEntry{
		{Key: key, Day: "2026-03-01"},
		{Key: key, Day: "2026-03-02"},
		{Key: key, Day: "2026-03-13"},
	}
	require.NoError(t, store.Put(context.Background(), keyTightMiss, old))

	view, err := tr.LoadView(context.Background())
	require.NoError(t, err)
	assert.False(t, view.TightMissSuppressed[key])
}

func TestCalibrationNeedsMinimumSamples(t *testing.T) {
	current := map[string]float64{}

	// 4 muestras Elite, todas perdidas: igual no alcanza la muestra mínima.
	var samples []tierSample
	for i := 0; i < 4; i++ {
		samples = append(samples, tierSample{Bucket: domain.BucketElite, Day: "2026-03-14", Won: false})
	}

	adjust := calibrate(samples, current)

	assert.NotContains(t, adjust, domain.BucketElite)
}

func TestCalibrationNudgesUnderperformingTierDown(t *testing.T) {
	var samples []tierSample
	// Elite promete 0.70; 1/6 = 0.17 está >0.15 por debajo.
	for i := 0; i < 5; i++ {
		samples = append(samples, tierSample{Bucket: domain.BucketElite, Day: "2026-03-14", Won: false})
	}
	samples = append(samples, tierSample{Bucket: domain.BucketElite, Day: "2026-03-14", Won: true})

	adjust := calibrate(samples, map[string]float64{})

	assert.InDelta(t, -calibStep, adjust[domain.BucketElite], 1e-9)
}

func TestCalibrationNudgesOverperformingTierUp(t *testing.T) {
	var samples []tierSample
	// Fade promete 0.45; 6/6 = 1.0 está >0.10 por encima.
	for i := 0; i < 6; i++ {
		samples = append(samples, tierSample{Bucket: domain.BucketFade, Day: "2026-03-14", Won: true})
	}

	adjust := calibrate(samples, map[string]float64{domain.BucketFade: 0.02})

	assert.InDelta(t, 0.04, adjust[domain.BucketFade], 1e-9)
}

func TestCalibrationAdjustClamped(t *testing.T) {
	var samples []tierSample
	for i := 0; i < 6; i++ {
		samples = append(samples, tierSample{Bucket: domain.BucketFade, Day: "2026-03-14", Won: true})
	}

	adjust := calibrate(samples, map[string]float64{domain.BucketFade: calibMaxAdjust})

	assert.InDelta(t, calibMaxAdjust, adjust[domain.BucketFade], 1e-9)
}

func TestPerformanceSummary(t *testing.T) {
	perf := Performance{}
	win := pendingTicket("w", selection("A", "Points", domain.SideOver, 10.5))
	win.Result = domain.ResultWin
	win.Stake, win.Payout = 10, 25
	loss := pendingTicket("l", selection("B", "Assists", domain.SideOver, 5.5))
	loss.Result = domain.ResultLoss
	loss.Stake = 10
	push := pendingTicket("p", selection("C", "Rebounds", domain.SideOver, 8))
	push.Result = domain.ResultPush
	push.Stake = 10

	perf.apply(win)
	perf.apply(loss)
	perf.apply(push)

	assert.Equal(t, 1, perf.Wins)
	assert.Equal(t, 1, perf.Losses)
	assert.Equal(t, 1, perf.Pushes)
	assert.InDelta(t, 0.5, perf.WinRate(), 1e-9)
	// Apostado 30, devuelto 25 + 10 = 35.
	assert.InDelta(t, 5.0/30.0, perf.ROI(), 1e-9)
}

func TestToughOpponentsTopSeven(t *testing.T) {
	losses := map[string]int{
		"A": 9, "B": 8, "C": 7, "D": 6, "E": 5, "F": 4, "G": 3, "H": 2, "I": 1,
	}

	tough := toughOpponents(losses, toughOpponentLimit)

	assert.Len(t, tough, 7)
	assert.True(t, tough["A"])
	assert.False(t, tough["H"])
	assert.False(t, tough["I"])
}

func TestLoadViewEmptyStore(t *testing.T) {
	tr := fixedTracker(newMemStore(), time.Now())

	view, err := tr.LoadView(context.Background())

	require.NoError(t, err)
	assert.Empty(t, view.Players)
	assert.Empty(t, view.RedFlags)
	assert.Empty(t, view.UsedToday)
	assert.Empty(t, view.TightMissSuppressed)
}
