package text

import (
	"strings"
)

// PageText is the extracted text of a single PDF page. Page numbers are
// 1-based and contiguous in the order the extractor produced them.
type PageText struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

// Chunk is a bounded, overlapping piece of a document's text, the unit that
// gets embedded and retrieved. Index reconstructs reading order; PageNumber
// is the page the chunk started on.
type Chunk struct {
	Text       string
	Index      int
	PageNumber int
	Metadata   map[string]any
}

// Chunker splits page texts into overlapping chunks without breaking
// sentences. Size is a soft upper bound in characters; Overlap is how many
// trailing characters of a flushed chunk seed the next one.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) Chunker {
	return Chunker{Size: size, Overlap: overlap}
}

// Chunk streams sentences across page boundaries in page order, flushing the
// buffer whenever the next sentence would push it past Size. A sentence
// longer than Size is never split; it is flushed as an oversized chunk on its
// own. An empty page list yields no chunks.
func (c Chunker) Chunk(pages []PageText) []Chunk {
	var chunks []Chunk
	var buf strings.Builder
	length := 0
	index := 0
	page := 0 // page of the first sentence in the current buffer, 0 = unset

	flush := func() {
		trimmed := strings.TrimSpace(buf.String())
		if trimmed == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Text:       trimmed,
			Index:      index,
			PageNumber: page,
			Metadata: map[string]any{
				"pageNumber": page,
				"chunkIndex": index,
			},
		})
		index++
	}

	for _, p := range pages {
		for sentence := range Sentences(p.Text) {
			if length+len(sentence) > c.Size && length > 0 {
				flush()

				// Seed the next buffer with the overlap tail and restart
				// page tracking for it.
				tail := c.overlapTail(buf.String())
				buf.Reset()
				buf.WriteString(tail)
				length = len(tail)
				page = 0
			}

			buf.WriteString(sentence)
			buf.WriteByte(' ')
			length += len(sentence) + 1

			if page == 0 {
				page = p.Number
			}
		}
	}

	if length > 0 {
		flush()
	}

	return chunks
}

// overlapTail returns the last Overlap characters of text, moved forward to
// the next word boundary when the first space falls within the first half of
// the window. A raw mid-word tail is kept when no nearby break exists.
func (c Chunker) overlapTail(text string) string {
	if len(text) <= c.Overlap {
		return text
	}

	tail := text[len(text)-c.Overlap:]
	if i := strings.IndexByte(tail, ' '); i > 0 && i < len(tail)/2 {
		tail = tail[i+1:]
	}
	return tail
}
