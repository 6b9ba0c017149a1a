package pipeline

import (
	"github.com/mferrall/showrunner/internal/persona"
)

// Context is the shared material one round's prompts are built from. It is
// immutable per round: feedback produces a new value, never an in-place
// mutation, so concurrent readers in a round all see the same context.
type Context struct {
	Brief    string
	Prior    []persona.PriorWork
	Feedback []string
}

// WithFeedback returns a copy of the context with one more feedback note
// appended. Earlier notes are preserved so later rounds see the full
// critique history.
func (c Context) WithFeedback(note string) Context {
	next := Context{Brief: c.Brief}
	next.Prior = append([]persona.PriorWork(nil), c.Prior...)
	next.Feedback = append(append([]string(nil), c.Feedback...), note)
	return next
}

// PromptInput shapes the context for prompt rendering in a given phase.
func (c Context) PromptInput(spec PhaseSpec) persona.PromptInput {
	return persona.PromptInput{
		PhaseName: spec.Name,
		PhaseGoal: spec.Goal,
		Brief:     c.Brief,
		Prior:     c.Prior,
		Feedback:  c.Feedback,
	}
}
