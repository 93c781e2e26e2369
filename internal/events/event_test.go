package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChat(t *testing.T) {
	c, ok := ParseChat("ChatAdmin", "  !CameraIgnore add 0002ab  ")
	require.True(t, ok)
	assert.Equal(t, Chat{Channel: "ChatAdmin", Command: "cameraignore", Args: []string{"add", "0002ab"}}, c)

	c, ok = ParseChat("", "!camerastats")
	require.True(t, ok)
	assert.Equal(t, "camerastats", c.Command)
	assert.Nil(t, c.Args)

	for _, text := range []string{"", "hello", "!", "camerastats"} {
		_, ok := ParseChat("ChatAll", text)
		assert.False(t, ok, text)
	}
}
