package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayerHistory_AppendComputesDerived(t *testing.T) {
	var h PlayerHistory
	h.Append(ResultWin)
	h.Append(ResultWin)
	h.Append(ResultLoss)

	assert.Equal(t, 3, h.TotalPicks)
	assert.Equal(t, -1, h.Streak)
	assert.InDelta(t, 2.0/3.0, h.HitRate, 0.001)
}

func TestPlayerHistory_WinStreak(t *testing.T) {
	var h PlayerHistory
	for _, r := range []Result{ResultLoss, ResultWin, ResultWin, ResultWin} {
		h.Append(r)
	}
	assert.Equal(t, 3, h.Streak)
}

func TestPlayerHistory_PushBreaksStreak(t *testing.T) {
	var h PlayerHistory
	for _, r := range []Result{ResultWin, ResultWin, ResultPush} {
		h.Append(r)
	}
	assert.Equal(t, 0, h.Streak)
}

func TestPlayerHistory_WindowTrim(t *testing.T) {
	var h PlayerHistory
	for i := 0; i < HistoryWindow+10; i++ {
		h.Append(ResultWin)
	}
	assert.Len(t, h.Results, HistoryWindow)
	assert.Equal(t, HistoryWindow+10, h.TotalPicks)
}

func TestPlayerHistory_HitRateIgnoresPushes(t *testing.T) {
	var h PlayerHistory
	for _, r := range []Result{ResultWin, ResultPush, ResultLoss, ResultPush} {
		h.Append(r)
	}
	assert.InDelta(t, 0.5, h.HitRate, 0.001)
	assert.Equal(t, 2, h.SampleSize())
}

func TestPlayerHistory_EmptyHitRateIsNeutral(t *testing.T) {
	var h PlayerHistory
	assert.InDelta(t, 0.5, computeHitRate(h.Results), 0.001)
}
