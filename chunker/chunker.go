// Package chunker splits extracted document text into bounded,
// semantically coherent chunks suitable for embedding.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

// Chunk is the atomic retrieval unit. Content never exceeds the
// configured MaxChunkBytes.
type Chunk struct {
	ID      string
	Content string
	Section string
	Ordinal int
	Bytes   int
	Parent  string
}

// Config controls chunk sizing. ChunkSize is a soft readability
// target; MaxChunkBytes is the hard ceiling imposed by the embedding
// backend. Documents above LargeDocBytes skip structural analysis.
type Config struct {
	ChunkSize     int
	Overlap       int
	MaxChunkBytes int
	LargeDocBytes int
}

const (
	DefaultChunkSize     = 1500
	DefaultOverlap       = 200
	DefaultMaxChunkBytes = 20000
)

// Section is a labeled span of document text produced by a detector.
type Section struct {
	Label   string
	Content string
}

// SectionDetector finds structural sections in document text. A
// detector returning no sections triggers the sliding-window
// fallback.
type SectionDetector interface {
	Detect(text string) []Section
}

// HeaderExtractor is an optional detector capability: an identity
// block pulled from the top of the document and prepended to the
// first chunk.
type HeaderExtractor interface {
	Header(text string) string
}

type Chunker struct {
	cfg       Config
	detectors map[string]SectionDetector
	generic   SectionDetector
}

func New(cfg Config) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MaxChunkBytes <= 0 {
		cfg.MaxChunkBytes = DefaultMaxChunkBytes
	}
	if cfg.ChunkSize >= cfg.MaxChunkBytes {
		cfg.ChunkSize = cfg.MaxChunkBytes / 2
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize - 1
	}
	if cfg.LargeDocBytes <= 0 {
		cfg.LargeDocBytes = 2 * cfg.MaxChunkBytes
	}

	c := &Chunker{
		cfg:       cfg,
		detectors: make(map[string]SectionDetector),
		generic:   &ParagraphDetector{Target: cfg.ChunkSize, Overlap: cfg.Overlap},
	}
	c.Register("resume", &ResumeDetector{})

	return c
}

// Register associates a detector with a document type tag.
func (c *Chunker) Register(docType string, d SectionDetector) {
	c.detectors[strings.ToLower(docType)] = d
}

// Chunk splits text into ordered chunks. Empty text yields no chunks;
// that is "nothing to index", not an error. Structural detection that
// finds nothing falls back to fixed-size windows, so the result is
// non-empty for any non-empty input.
func (c *Chunker) Chunk(text string, docType string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Very large documents skip structural analysis entirely:
	// throughput and the embedding size ceiling win over semantic
	// fidelity here.
	if len(text) > c.cfg.LargeDocBytes {
		return c.slide(text, "large_doc")
	}

	detector, ok := c.detectors[strings.ToLower(docType)]
	if !ok {
		detector = c.generic
	}

	sections := detector.Detect(text)
	if len(sections) == 0 && detector != c.generic {
		sections = c.generic.Detect(text)
	}
	if len(sections) == 0 {
		return c.slide(text, "fallback")
	}

	chunks := make([]Chunk, 0, len(sections))
	for i, s := range sections {
		content := s.Content
		if s.Label != "" {
			content = s.Label + "\n" + s.Content
		}
		chunks = append(chunks, Chunk{
			ID:      fmt.Sprintf("section_%d", i),
			Content: strings.TrimSpace(content),
			Section: strings.ToLower(s.Label),
			Ordinal: i,
		})
	}

	if h, ok := detector.(HeaderExtractor); ok {
		if header := h.Header(text); header != "" {
			chunks[0].Content = header + "\n\n" + chunks[0].Content
		}
	}

	chunks = c.enforceCeiling(chunks)
	if len(chunks) == 0 {
		return c.slide(text, "fallback")
	}

	for i := range chunks {
		chunks[i].Ordinal = i
		chunks[i].Bytes = len(chunks[i].Content)
	}

	return chunks
}

// enforceCeiling force-splits any chunk above MaxChunkBytes at
// sentence boundaries, tagging sub-chunks with the parent chunk ID.
func (c *Chunker) enforceCeiling(chunks []Chunk) []Chunk {
	out := make([]Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if len(ch.Content) <= c.cfg.MaxChunkBytes {
			out = append(out, ch)
			continue
		}
		out = append(out, c.splitSentences(ch)...)
	}

	return out
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)

func (c *Chunker) splitSentences(ch Chunk) []Chunk {
	sentences := sentenceRe.FindAllString(ch.Content, -1)

	var out []Chunk
	var buf strings.Builder
	part := 0
	flush := func() {
		content := strings.TrimSpace(buf.String())
		if content == "" {
			return
		}
		out = append(out, Chunk{
			ID:      fmt.Sprintf("%s_part_%d", ch.ID, part),
			Content: content,
			Section: ch.Section,
			Parent:  ch.ID,
		})
		part++
		buf.Reset()
	}

	for _, s := range sentences {
		// A single sentence above the ceiling gets hard-sliced.
		if len(s) > c.cfg.MaxChunkBytes {
			flush()
			for pos := 0; pos < len(s); pos += c.cfg.MaxChunkBytes {
				end := min(pos+c.cfg.MaxChunkBytes, len(s))
				buf.WriteString(s[pos:end])
				flush()
			}
			continue
		}
		if buf.Len()+len(s) > c.cfg.MaxChunkBytes {
			flush()
		}
		buf.WriteString(s)
	}
	flush()

	return out
}

// slide is the fixed-size window fallback, adapted for the hard byte
// ceiling. Overlap is clamped so the scan always advances.
func (c *Chunker) slide(text string, prefix string) []Chunk {
	window := c.cfg.ChunkSize
	if window >= c.cfg.MaxChunkBytes {
		window = c.cfg.MaxChunkBytes - 1
	}
	overlap := c.cfg.Overlap
	if overlap >= window {
		overlap = window - 1
	}
	step := window - overlap

	chunks := make([]Chunk, 0, len(text)/step+1)
	pos := 0
	for {
		end := min(pos+window, len(text))
		content := strings.TrimSpace(text[pos:end])
		if content != "" {
			i := len(chunks)
			chunks = append(chunks, Chunk{
				ID:      fmt.Sprintf("%s_%d", prefix, i),
				Content: content,
				Ordinal: i,
				Bytes:   len(content),
			})
		}
		if end >= len(text) {
			break
		}

		pos += step
	}

	return chunks
}
