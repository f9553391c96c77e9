package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Smith
jane.smith@example.com | 555-123-4567
github.com/janesmith

Summary
Backend engineer with eight years of experience.

Skills
Go, Python, PostgreSQL, Kubernetes.

Work Experience
Acme Corp, Senior Engineer, 2019-2024.
Built the billing pipeline.

Education
BSc Computer Science, State University.`

func Test_Chunk_Resume(t *testing.T) {
	c := New(Config{})
	chunks := c.Chunk(sampleResume, "resume")

	require.GreaterOrEqual(t, len(chunks), 2)

	var labels []string
	for _, ch := range chunks {
		labels = append(labels, ch.Section)
	}
	assert.Contains(t, labels, "skills")
	assert.Contains(t, labels, "education")

	// Identity block lands in the first chunk.
	assert.Contains(t, chunks[0].Content, "jane.smith@example.com")
}

func Test_Chunk_Empty(t *testing.T) {
	c := New(Config{})
	assert.Empty(t, c.Chunk("", "resume"))
	assert.Empty(t, c.Chunk("   \n\n  ", "general"))
}

func Test_Chunk_Ordinals(t *testing.T) {
	c := New(Config{ChunkSize: 40, Overlap: 10})
	chunks := c.Chunk("First paragraph of text.\n\nSecond paragraph of text.\n\nThird paragraph of text.", "general")

	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
		assert.Equal(t, len(ch.Content), ch.Bytes)
	}
}

func Test_Chunk_CeilingHolds(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		docType string
		cfg     Config
	}{
		{
			name:    "large document window path",
			text:    strings.Repeat("All work and no play makes Jack a dull boy. ", 400),
			docType: "general",
			cfg:     Config{ChunkSize: 500, Overlap: 50, MaxChunkBytes: 1000},
		},
		{
			name:    "oversized section force split",
			text:    "Skills\n" + strings.Repeat("Distributed systems. ", 100),
			docType: "resume",
			cfg:     Config{ChunkSize: 400, Overlap: 0, MaxChunkBytes: 800, LargeDocBytes: 100000},
		},
		{
			name:    "single run-on sentence",
			text:    "Skills\n" + strings.Repeat("x", 3000),
			docType: "resume",
			cfg:     Config{ChunkSize: 400, Overlap: 0, MaxChunkBytes: 800, LargeDocBytes: 100000},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := New(tc.cfg).Chunk(tc.text, tc.docType)
			require.NotEmpty(t, chunks)
			for _, ch := range chunks {
				assert.LessOrEqual(t, len(ch.Content), tc.cfg.MaxChunkBytes, "chunk %s", ch.ID)
			}
		})
	}
}

func Test_Chunk_ForceSplitParents(t *testing.T) {
	text := "Skills\n" + strings.Repeat("Knows many things. ", 200)
	c := New(Config{ChunkSize: 500, Overlap: 0, MaxChunkBytes: 1000, LargeDocBytes: 100000})

	chunks := c.Chunk(text, "resume")
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.Equal(t, "section_0", ch.Parent)
		assert.Equal(t, "skills", ch.Section)
	}
}

func Test_Chunk_Coverage(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	c := New(Config{ChunkSize: 700, Overlap: 100, MaxChunkBytes: 2000})

	chunks := c.Chunk(text, "general")
	require.NotEmpty(t, chunks)

	total := 0
	for _, ch := range chunks {
		total += len(ch.Content)
	}
	// Whitespace trimming aside, every byte of input is represented.
	assert.GreaterOrEqual(t, total, len(text)-len(chunks)*2)
}

func Test_Chunk_OverlapClamped(t *testing.T) {
	// Overlap larger than the window must not stall the scan.
	c := New(Config{ChunkSize: 10, Overlap: 50, MaxChunkBytes: 100})
	chunks := c.Chunk(strings.Repeat("abcdefghij", 30), "general")
	require.NotEmpty(t, chunks)
}

func Test_Slide(t *testing.T) {
	cases := []struct {
		input   string
		size    int
		overlap int
		want    []string
	}{
		{input: "abcdefg", size: 3, overlap: 0, want: []string{"abc", "def", "g"}},
		{input: "abcdefg", size: 3, overlap: 1, want: []string{"abc", "cde", "efg"}},
		{input: "abcdefg", size: 9, overlap: 5, want: []string{"abcdefg"}},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			c := New(Config{ChunkSize: tc.size, Overlap: tc.overlap, MaxChunkBytes: 100})
			chunks := c.slide(tc.input, "w")
			var got []string
			for _, ch := range chunks {
				got = append(got, ch.Content)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func Test_ParagraphDetector_Overlap(t *testing.T) {
	d := &ParagraphDetector{Target: 50, Overlap: 30}
	sections := d.Detect("one two three four five six seven eight nine ten.\n\nnext paragraph starts here and keeps going for a while.")

	require.Len(t, sections, 2)
	// The second section starts with the tail of the first.
	assert.Contains(t, sections[1].Content, "nine ten.")
}
