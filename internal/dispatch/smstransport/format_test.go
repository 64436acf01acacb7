package smstransport_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jschultzelutter/mowas-beacon/internal/dispatch/smstransport"
)

func TestConvertToPlainASCII(t *testing.T) {
	assert.Equal(t, "Ueberschwemmungsgefahr in der Naehe von Muenchen, Strasse gesperrt",
		smstransport.ConvertToPlainASCII("Überschwemmungsgefahr in der Nähe von München, Straße gesperrt"))
}

func TestFormat_NoSplitTruncates(t *testing.T) {
	long := strings.Repeat("a", 100)
	out := smstransport.Format(long, smstransport.MinMessageLength, false)
	assert.Len(t, out, 1)
	assert.Len(t, out[0], smstransport.MinMessageLength)
}

func TestFormat_StripsForbiddenCharacters(t *testing.T) {
	out := smstransport.Format("warning {high} priority |now| ~urgent~", 80, false)
	for _, ch := range []string{"{", "}", "|", "~"} {
		assert.NotContains(t, out[0], ch)
	}
}

// Property #7: splitting respects word boundaries unless a single word
// exceeds the length budget, in which case it is hard-split.
func TestFormat_SplitsOnWordBoundaries(t *testing.T) {
	message := strings.TrimSpace(strings.Repeat("word ", 40))
	out := smstransport.Format(message, smstransport.MinMessageLength, true)

	assert.Greater(t, len(out), 1)

	totalWords := 0
	for _, segment := range out {
		assert.LessOrEqual(t, len(segment), smstransport.MinMessageLength)
		for _, w := range strings.Fields(segment) {
			assert.Equal(t, "word", w, "no fragment should appear mid-word")
			totalWords++
		}
	}
	assert.Equal(t, 40, totalWords)
}

func TestFormat_HardSplitsOverlongWord(t *testing.T) {
	overlong := strings.Repeat("x", 200)
	out := smstransport.Format(overlong, smstransport.MinMessageLength, true)
	assert.Greater(t, len(out), 1)
	for _, segment := range out {
		assert.LessOrEqual(t, len(segment), smstransport.MinMessageLength)
	}

	var rebuilt strings.Builder
	for _, segment := range out {
		rebuilt.WriteString(segment)
	}
	assert.Equal(t, overlong, rebuilt.String())
}

func TestFormat_EnforcesMinimumLength(t *testing.T) {
	out := smstransport.Format("short message", 10, false)
	assert.Equal(t, []string{"short message"}, out)
}
