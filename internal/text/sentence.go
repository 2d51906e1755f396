package text

import "iter"

// Sentences splits text into sentences. A boundary is end-of-sentence
// punctuation (. ! ?) followed by whitespace; the whitespace run is consumed.
// A trailing fragment without terminal punctuation is emitted as its own
// sentence, so no input text is ever dropped. The returned sequence is lazy
// and can be ranged over more than once.
func Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := 0
		i := 0
		for i < len(text) {
			c := text[i]
			if (c == '.' || c == '!' || c == '?') && i+1 < len(text) && isSpace(text[i+1]) {
				if !yield(text[start : i+1]) {
					return
				}
				i++
				for i < len(text) && isSpace(text[i]) {
					i++
				}
				start = i
				continue
			}
			i++
		}
		if start < len(text) {
			yield(text[start:])
		}
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
