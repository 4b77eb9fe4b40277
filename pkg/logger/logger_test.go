package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshashah22/131-Insight/config"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}

	_, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	f := Excerpt("text", "Students  were\nengaged")
	assert.Equal(t, "text", f.Key)
	assert.Equal(t, "Students were engaged", f.String)

	long := strings.Repeat("学", 100)
	f = Excerpt("text", long)
	assert.Equal(t, strings.Repeat("学", excerptRunes)+"… (100 chars)", f.String)
}
