// Package ui formats pipeline progress for terminal display.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mferrall/showrunner/internal/session"
)

// PhaseSpec is the subset of phase metadata the display needs. Defined here
// so the package stays independent of the pipeline wiring.
type PhaseSpec struct {
	Number int
	Name   string
}

// RoundState holds the current state for one-line round progress display.
type RoundState struct {
	Phase     string
	Iteration int
	MaxRounds int
	Winner    string
	Score     float64
	StartTime time.Time
}

// FormatRound returns a single-line progress string for display during a
// refinement round.
func FormatRound(rs RoundState) string {
	elapsed := time.Since(rs.StartTime).Truncate(time.Second)
	leader := rs.Winner
	if leader == "" {
		leader = "none"
	}
	return fmt.Sprintf("[%s] round %d/%d | leader: %s (%.0f/100) | %v elapsed",
		rs.Phase, rs.Iteration, rs.MaxRounds, leader, rs.Score, elapsed)
}

// FormatPhaseTable renders the session's phase progress as an aligned table.
// Phases the session has not touched yet render as not_started. A trailing
// asterisk on a status marks a phase accepted below the convergence
// threshold.
func FormatPhaseTable(sess *session.Session, phases []PhaseSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-3s %-12s %-13s %-14s %6s  %s\n", "#", "PHASE", "STATUS", "WINNER", "SCORE", "ROUNDS")
	for _, spec := range phases {
		rec, ok := sess.Phases[spec.Number]
		if !ok {
			fmt.Fprintf(&b, "%-3d %-12s %-13s %-14s %6s  %d\n",
				spec.Number, spec.Name, session.StatusNotStarted, "-", "-", 0)
			continue
		}
		winner := rec.Winner
		if winner == "" {
			winner = "-"
		}
		score := "-"
		if rec.Status == session.StatusCompleted {
			score = fmt.Sprintf("%.0f", rec.Score)
		}
		status := rec.Status
		if rec.Status == session.StatusCompleted && !rec.Converged {
			status += "*"
		}
		fmt.Fprintf(&b, "%-3d %-12s %-13s %-14s %6s  %d\n",
			spec.Number, spec.Name, status, winner, score, len(rec.Attempts))
	}
	return b.String()
}

// Summary holds the end-of-run report for a session.
type Summary struct {
	SessionID       string
	PhasesCompleted int
	PhasesTotal     int
	Rounds          int
	TotalTokens     int
	Duration        time.Duration
}

// Summarize derives a Summary from a session's persisted state.
func Summarize(sess *session.Session, phases []PhaseSpec, duration time.Duration) Summary {
	s := Summary{
		SessionID:   sess.SessionID,
		PhasesTotal: len(phases),
		Duration:    duration,
	}
	for _, spec := range phases {
		rec, ok := sess.Phases[spec.Number]
		if !ok {
			continue
		}
		if rec.Completed() {
			s.PhasesCompleted++
		}
		s.Rounds += len(rec.Attempts)
		for _, att := range rec.Attempts {
			s.TotalTokens += att.TokensUsed
		}
	}
	return s
}

// FormatSummary returns a multi-line end-of-run report.
func FormatSummary(s Summary) string {
	var b strings.Builder
	b.WriteString("\n=== Session Summary ===\n")
	fmt.Fprintf(&b, "Session:   %s\n", s.SessionID)
	fmt.Fprintf(&b, "Duration:  %v\n", s.Duration.Truncate(time.Second))
	fmt.Fprintf(&b, "Phases:    %d/%d completed\n", s.PhasesCompleted, s.PhasesTotal)
	fmt.Fprintf(&b, "Rounds:    %d\n", s.Rounds)
	if s.TotalTokens > 0 {
		fmt.Fprintf(&b, "Tokens:    %d\n", s.TotalTokens)
	}
	b.WriteString("=======================\n")
	return b.String()
}
