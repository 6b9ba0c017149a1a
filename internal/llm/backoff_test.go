package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffCapped(t *testing.T) {
	base := time.Second
	max := 8 * time.Second
	assert.Equal(t, time.Second, Backoff(base, max, 1))
	assert.Equal(t, 2*time.Second, Backoff(base, max, 2))
	assert.Equal(t, 4*time.Second, Backoff(base, max, 3))
	assert.Equal(t, 8*time.Second, Backoff(base, max, 4))
	assert.Equal(t, 8*time.Second, Backoff(base, max, 10))
}
