package libemit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newWriterLogger(&buf)

	child := log.WithField("b", 2).WithField("a", 1)
	child.Warnln("careful")
	log.Errorf("failed: %s", "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.True(t, strings.HasSuffix(lines[0], "WARN [a=1, b=2]: careful"), lines[0])
		assert.True(t, strings.HasSuffix(lines[1], "ERROR: failed: boom"), lines[1])
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	log.WithField("registry", 4).Debugln("destroyed")

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"registry":4`)
	assert.Contains(t, out, `"message":"destroyed"`)
}

func TestNopLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		nopLogger{}.WithField("k", "v").Errorf("nothing %d", 1)
	})
}
