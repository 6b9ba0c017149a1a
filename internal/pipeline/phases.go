package pipeline

import (
	"fmt"

	"github.com/mferrall/showrunner/internal/media"
)

// PhaseSpec describes one stage of the production pipeline.
type PhaseSpec struct {
	Number int
	Name   string
	Goal   string

	// Requires lists phase numbers whose accepted results must exist
	// before this phase can run.
	Requires []int

	// Media names the external collaborator fed with this phase's
	// accepted result. Empty means no handoff.
	Media media.Kind
}

var phaseTable = []PhaseSpec{
	{
		Number: 1,
		Name:   "concept",
		Goal:   "Propose the video's core creative concept: premise, tone, a one-line logline and the key visual motif that everything downstream will build on.",
	},
	{
		Number:   2,
		Name:     "narrative",
		Goal:     "Develop the story arc across the full track: setup, escalation and resolution, with the emotional beats tied to the music's structure.",
		Requires: []int{1},
	},
	{
		Number:   3,
		Name:     "characters",
		Goal:     "Design the cast: who appears on screen, their look, their role in the narrative and how they change across the video.",
		Requires: []int{1, 2},
	},
	{
		Number:   4,
		Name:     "world",
		Goal:     "Define the world and visual style: locations, palette, lighting, wardrobe and the rules of the setting.",
		Requires: []int{1, 2},
	},
	{
		Number:   5,
		Name:     "sections",
		Goal:     "Break the track into timed sections and map each section to a narrative beat, naming where it lands in the arc.",
		Requires: []int{2},
		Media:    media.KindAudioAnalysis,
	},
	{
		Number:   6,
		Name:     "storyboard",
		Goal:     "Storyboard each section: the key frames, what is in them, and how they carry the section's beat.",
		Requires: []int{3, 4, 5},
		Media:    media.KindImageSynthesis,
	},
	{
		Number:   7,
		Name:     "shotdesign",
		Goal:     "Design the shots behind each storyboard frame: camera, framing, movement and duration.",
		Requires: []int{6},
	},
	{
		Number:   8,
		Name:     "transitions",
		Goal:     "Design the transitions between sections and shots so cuts land on the music and the arc reads continuously.",
		Requires: []int{5, 7},
	},
	{
		Number:   9,
		Name:     "assembly",
		Goal:     "Produce the final assembly plan: an ordered edit decision list with timings, shots, transitions and any overlays.",
		Requires: []int{7, 8},
		Media:    media.KindVideoComposition,
	},
}

// Phases returns the pipeline's phase specs in execution order.
func Phases() []PhaseSpec {
	out := make([]PhaseSpec, len(phaseTable))
	copy(out, phaseTable)
	return out
}

// FirstPhase and LastPhase bound the valid phase range.
func FirstPhase() int { return phaseTable[0].Number }
func LastPhase() int  { return phaseTable[len(phaseTable)-1].Number }

// PhaseByNumber looks up a phase spec by its number.
func PhaseByNumber(n int) (PhaseSpec, error) {
	for _, p := range phaseTable {
		if p.Number == n {
			return p, nil
		}
	}
	return PhaseSpec{}, fmt.Errorf("unknown phase %d", n)
}
