package ui

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mferrall/showrunner/internal/session"
)

var testPhases = []PhaseSpec{
	{Number: 1, Name: "concept"},
	{Number: 2, Name: "narrative"},
	{Number: 3, Name: "characters"},
}

func testSession(t *testing.T) *session.Session {
	t.Helper()
	sess := &session.Session{
		SessionID: "abc-123",
		Phases:    make(map[int]*session.PhaseRecord),
	}
	rec := sess.Phase(1)
	require.NoError(t, rec.Start())
	rec.Attempts = append(rec.Attempts, session.Attempt{Number: 1, Success: true})
	require.NoError(t, rec.Complete("visionary", 85, json.RawMessage(`{"proposal":"x"}`), true))
	return sess
}

func TestFormatRound(t *testing.T) {
	line := FormatRound(RoundState{
		Phase:     "concept",
		Iteration: 2,
		MaxRounds: 3,
		Winner:    "minimalist",
		Score:     72,
		StartTime: time.Now().Add(-3 * time.Second),
	})
	assert.Contains(t, line, "[concept] round 2/3")
	assert.Contains(t, line, "minimalist (72/100)")
}

func TestFormatRoundNoLeader(t *testing.T) {
	line := FormatRound(RoundState{Phase: "concept", Iteration: 1, MaxRounds: 3, StartTime: time.Now()})
	assert.Contains(t, line, "leader: none")
}

func TestFormatPhaseTable(t *testing.T) {
	out := FormatPhaseTable(testSession(t), testPhases)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "header plus one row per phase")

	assert.Contains(t, lines[1], "concept")
	assert.Contains(t, lines[1], "completed")
	assert.Contains(t, lines[1], "visionary")
	assert.Contains(t, lines[1], "85")
	assert.Contains(t, lines[2], "not_started")
}

func TestFormatPhaseTableMarksBelowThreshold(t *testing.T) {
	sess := testSession(t)
	rec := sess.Phase(2)
	require.NoError(t, rec.Start())
	require.NoError(t, rec.Complete("storyteller", 70, json.RawMessage(`{"proposal":"y"}`), false))

	out := FormatPhaseTable(sess, testPhases)
	assert.Contains(t, out, "completed*")
}

func TestSummarize(t *testing.T) {
	s := Summarize(testSession(t), testPhases, 90*time.Second)
	assert.Equal(t, "abc-123", s.SessionID)
	assert.Equal(t, 1, s.PhasesCompleted)
	assert.Equal(t, 3, s.PhasesTotal)
	assert.Equal(t, 1, s.Rounds)

	out := FormatSummary(s)
	assert.Contains(t, out, "1/3 completed")
	assert.Contains(t, out, "abc-123")
	assert.NotContains(t, out, "Tokens", "token line omitted when unknown")
}

func TestSummarizeTotalsTokensAcrossAttempts(t *testing.T) {
	sess := testSession(t)
	sess.Phase(1).Attempts[0].TokensUsed = 250
	rec := sess.Phase(2)
	require.NoError(t, rec.Start())
	rec.Attempts = append(rec.Attempts,
		session.Attempt{Number: 1, TokensUsed: 180},
		session.Attempt{Number: 2, Success: true, TokensUsed: 210},
	)
	require.NoError(t, rec.Complete("storyteller", 82, json.RawMessage(`{"proposal":"y"}`), true))

	s := Summarize(sess, testPhases, time.Minute)
	assert.Equal(t, 640, s.TotalTokens)
	assert.Contains(t, FormatSummary(s), "Tokens:    640")
}
