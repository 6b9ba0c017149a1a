package media

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkWritesHandoff(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir, KindImageSynthesis)

	res, err := sink.Submit(context.Background(), Request{
		SessionID: "sess-1",
		Phase:     6,
		PhaseName: "storyboard",
		Payload:   "frame descriptions",
		Params:    map[string]string{"aspect": "16:9"},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.URI, "file://"))

	path := filepath.Join(dir, "sess-1", "06-image_synthesis.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var h handoffFile
	require.NoError(t, json.Unmarshal(data, &h))
	assert.Equal(t, "sess-1", h.SessionID)
	assert.Equal(t, 6, h.Phase)
	assert.Equal(t, KindImageSynthesis, h.Kind)
	assert.Equal(t, "frame descriptions", h.Payload)
	assert.Equal(t, "16:9", h.Params["aspect"])
}

func TestFileSinkOverwritesOnRepeat(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir, KindAudioAnalysis)
	req := Request{SessionID: "s", Phase: 5, PhaseName: "sections", Payload: "v1"}

	_, err := sink.Submit(context.Background(), req)
	require.NoError(t, err)
	req.Payload = "v2"
	_, err = sink.Submit(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "s", "05-audio_analysis.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "v2")
}
