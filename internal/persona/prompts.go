package persona

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mferrall/showrunner/internal/sanitize"
)

// PromptInput is the shared context a round's prompts are built from.
// It is a value: callers hand each round a fresh copy.
type PromptInput struct {
	PhaseName string
	PhaseGoal string
	Brief     string
	Prior     []PriorWork
	Feedback  []string
}

// PriorWork is the accepted result of an earlier phase.
type PriorWork struct {
	Phase  int
	Name   string
	Winner string
	Result string
}

// Candidate pairs a director with their submission for evaluation.
type Candidate struct {
	Director   string
	Submission string
}

const directorSystemPrompt = `You are one of several competing directors pitching for a music video production. Produce the strongest possible proposal for the current phase in your own directorial voice.

Output a single JSON object with:
- "proposal": the complete artifact for this phase
- "rationale": a short explanation of the creative choices

Stay within the current phase. Do not redo earlier phases; build on their accepted results.`

const evaluatorSystemPrompt = `You are the executive producer judging competing director proposals for one phase of a music video production.

Output a single JSON object with:
- "winner": the name of the best director
- "scores": an object mapping every director name to an integer score from 0 to 100
- "reasoning": a concise critique explaining the ranking, including what the winner should improve
- "partial_adoptions": an array of objects {"source", "element", "target"} naming specific elements of non-winning proposals worth merging into the winner, empty if none

Judge only the submissions given. The winner must be one of the submitted director names.`

// DirectorSystemPrompt returns the system instruction for proposal calls.
func DirectorSystemPrompt() string {
	return directorSystemPrompt
}

// EvaluatorSystemPrompt returns the system instruction for scoring calls.
func EvaluatorSystemPrompt() string {
	return evaluatorSystemPrompt
}

// ProposalPrompt renders the instruction one director receives for a round.
// Untrusted content is sanitized before interpolation.
func ProposalPrompt(d Director, in PromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %s\nGoal: %s\n\n", in.PhaseName, in.PhaseGoal)
	fmt.Fprintf(&b, "Your directorial style:\n%s\n\n", d.Style)
	fmt.Fprintf(&b, "<production-brief>\n%s\n</production-brief>\n", sanitize.PromptContent(in.Brief))

	if len(in.Prior) > 0 {
		b.WriteString("\n<prior-work>\n")
		for _, pw := range in.Prior {
			fmt.Fprintf(&b, "Phase %d (%s), won by %s:\n%s\n\n",
				pw.Phase, pw.Name, pw.Winner, sanitize.PromptContent(pw.Result))
		}
		b.WriteString("</prior-work>\n")
	}

	if len(in.Feedback) > 0 {
		b.WriteString("\n<feedback>\nPrior feedback from the executive producer. Address it directly in this revision:\n")
		for _, f := range in.Feedback {
			fmt.Fprintf(&b, "%s\n", sanitize.PromptContent(f))
		}
		b.WriteString("</feedback>\n")
	}

	return b.String()
}

// EvaluationPrompt renders the single scoring instruction embedding every
// successful candidate plus the roster's criteria weights.
func EvaluationPrompt(in PromptInput, candidates []Candidate, weights map[string]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %s\nGoal: %s\n\n", in.PhaseName, in.PhaseGoal)
	fmt.Fprintf(&b, "<production-brief>\n%s\n</production-brief>\n\n", sanitize.PromptContent(in.Brief))

	if len(weights) > 0 {
		b.WriteString("Director weighting (higher weight means their strengths matter more for this production):\n")
		names := make([]string, 0, len(weights))
		for name := range weights {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %.2f\n", name, weights[name])
		}
		b.WriteString("\n")
	}

	for _, c := range candidates {
		fmt.Fprintf(&b, "<candidate>\nDirector: %s\n<submission>\n%s\n</submission>\n</candidate>\n\n",
			c.Director, sanitize.PromptContent(c.Submission))
	}

	b.WriteString("Rank the candidates and answer in the required JSON format.")
	return b.String()
}
