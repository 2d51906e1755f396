package text_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"transcriptrag/internal/text"
)

func collect(s string) []string {
	return slices.Collect(text.Sentences(s))
}

func TestSentences(t *testing.T) {
	t.Run("Basic Split", func(t *testing.T) {
		got := collect("First sentence. Second sentence! Third sentence?")
		assert.Equal(t, []string{"First sentence.", "Second sentence!", "Third sentence?"}, got)
	})

	t.Run("Trailing Fragment", func(t *testing.T) {
		got := collect("Complete sentence. Trailing fragment without punctuation")
		assert.Equal(t, []string{"Complete sentence.", "Trailing fragment without punctuation"}, got)
	})

	t.Run("No Terminal Punctuation", func(t *testing.T) {
		got := collect("just a fragment")
		assert.Equal(t, []string{"just a fragment"}, got)
	})

	t.Run("Empty Input", func(t *testing.T) {
		assert.Empty(t, collect(""))
	})

	t.Run("Punctuation Mid Word Not Split", func(t *testing.T) {
		// Decimal points and abbreviations without trailing whitespace stay intact.
		got := collect("Revenue grew 3.5% this quarter. Margins held.")
		assert.Equal(t, []string{"Revenue grew 3.5% this quarter.", "Margins held."}, got)
	})

	t.Run("Multiple Whitespace Between Sentences", func(t *testing.T) {
		got := collect("One.  \n Two.")
		assert.Equal(t, []string{"One.", "Two."}, got)
	})

	t.Run("Restartable", func(t *testing.T) {
		seq := text.Sentences("A. B. C.")
		first := slices.Collect(seq)
		second := slices.Collect(seq)
		assert.Equal(t, first, second)
	})

	t.Run("Reconstructs Original Content", func(t *testing.T) {
		input := "The company reported record revenue. Margins expanded significantly! What drove the growth? Strong demand"
		joined := strings.Join(collect(input), " ")
		assert.Equal(t, input, joined)
	})
}
