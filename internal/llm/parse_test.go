package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scorePayload struct {
	Winner string             `json:"winner"`
	Scores map[string]float64 `json:"scores"`
}

func TestDecodeStrictJSON(t *testing.T) {
	var got scorePayload
	err := Decode(`{"winner":"auteur","scores":{"auteur":85}}`, &got)
	require.NoError(t, err)
	assert.Equal(t, "auteur", got.Winner)
	assert.Equal(t, 85.0, got.Scores["auteur"])
}

func TestDecodeFencedBlock(t *testing.T) {
	text := "Here is my ranking:\n```json\n{\"winner\":\"editor\",\"scores\":{\"editor\":72}}\n```\nHope that helps."
	var got scorePayload
	err := Decode(text, &got)
	require.NoError(t, err)
	assert.Equal(t, "editor", got.Winner)
}

func TestDecodeFencedBlockNoLanguageTag(t *testing.T) {
	text := "```\n{\"winner\":\"editor\"}\n```"
	var got scorePayload
	require.NoError(t, Decode(text, &got))
	assert.Equal(t, "editor", got.Winner)
}

func TestDecodeEmbeddedObject(t *testing.T) {
	text := `After careful consideration, my verdict is {"winner":"visionary","scores":{"visionary":91,"minimalist":60}} as explained above.`
	var got scorePayload
	require.NoError(t, Decode(text, &got))
	assert.Equal(t, "visionary", got.Winner)
	assert.Len(t, got.Scores, 2)
}

func TestDecodeBracesInsideStrings(t *testing.T) {
	text := `verdict: {"winner":"a {weird} name","scores":{"a {weird} name":50}}`
	var got scorePayload
	require.NoError(t, Decode(text, &got))
	assert.Equal(t, "a {weird} name", got.Winner)
}

func TestDecodeTotalFailureIsTransient(t *testing.T) {
	var got scorePayload
	err := Decode("I refuse to answer in the requested format.", &got)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestDecodeUnclosedObjectFails(t *testing.T) {
	var got scorePayload
	err := Decode(`{"winner":"auteur"`, &got)
	require.Error(t, err)
}

func TestIsTransientClassification(t *testing.T) {
	assert.True(t, IsTransient(Transient("call", errors.New("503"))))
	assert.False(t, IsTransient(Permanent("call", errors.New("bad key"))))
	assert.False(t, IsTransient(errors.New("plain error")))
}
