package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkosuri/docqa/llm"
)

type fakeGenerator struct {
	replies []string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}

	i := len(g.prompts) - 1
	if i >= len(g.replies) {
		i = len(g.replies) - 1
	}

	return g.replies[i], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSynthesizer(gen llm.Generator) *Synthesizer {
	return NewSynthesizer(discardLogger(), gen, llm.Policy{Attempts: 1}, 1000)
}

func Test_Answer_Batch(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"1. Go and Python.\n2. Eight years.\n3. Acme Corp."}}
	s := newTestSynthesizer(gen)

	answers, err := s.Answer(context.Background(), "some context", []string{"q1", "q2", "q3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Go and Python.", "Eight years.", "Acme Corp."}, answers)
	assert.Len(t, gen.prompts, 1)
}

func Test_Answer_PadsMissingAnswers(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"1. First.\n2. Second."}}
	s := newTestSynthesizer(gen)

	answers, err := s.Answer(context.Background(), "ctx", []string{"q1", "q2", "q3"})
	require.NoError(t, err)

	require.Len(t, answers, 3)
	assert.Equal(t, "First.", answers[0])
	assert.Equal(t, "Second.", answers[1])
	assert.Equal(t, NoAnswer, answers[2])
}

func Test_Answer_TruncatesExtraAnswers(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"1. One.\n2. Two.\n3. Three."}}
	s := newTestSynthesizer(gen)

	answers, err := s.Answer(context.Background(), "ctx", []string{"only question"})
	require.NoError(t, err)

	assert.Equal(t, []string{"One."}, answers)
}

func Test_Answer_EmptyContext(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"should not be called"}}
	s := newTestSynthesizer(gen)

	answers, err := s.Answer(context.Background(), "  ", []string{"q1", "q2"})
	require.NoError(t, err)

	assert.Equal(t, []string{NoAnswer, NoAnswer}, answers)
	assert.Empty(t, gen.prompts)
}

func Test_Answer_NoQuestions(t *testing.T) {
	s := newTestSynthesizer(&fakeGenerator{replies: []string{""}})

	answers, err := s.Answer(context.Background(), "ctx", nil)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func Test_Answer_SerialFallbackOnError(t *testing.T) {
	gen := &serialFakeGenerator{
		batchErr: errors.New("rate limited"),
		serial:   []string{"First answer.", "Second answer."},
	}
	s := newTestSynthesizer(gen)

	answers, err := s.Answer(context.Background(), "ctx", []string{"q1", "q2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"First answer.", "Second answer."}, answers)
	// One failed batch call plus one call per question.
	assert.Equal(t, 3, gen.calls)
}

func Test_Answer_SerialFallbackOnUnparseableReply(t *testing.T) {
	gen := &serialFakeGenerator{
		batchReply: "Here are your answers, without any numbering.",
		serial:     []string{"Alpha.", "Beta."},
	}
	s := newTestSynthesizer(gen)

	answers, err := s.Answer(context.Background(), "ctx", []string{"q1", "q2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha.", "Beta."}, answers)
}

// serialFakeGenerator fails or misformats the first (batch) call,
// then serves serial answers in order.
type serialFakeGenerator struct {
	batchErr   error
	batchReply string
	serial     []string
	calls      int
}

func (g *serialFakeGenerator) Generate(context.Context, string) (string, error) {
	g.calls++
	if g.calls == 1 {
		if g.batchErr != nil {
			return "", g.batchErr
		}
		return g.batchReply, nil
	}

	i := g.calls - 2
	if i >= len(g.serial) {
		return "", errors.New("no more answers")
	}

	return g.serial[i], nil
}

func Test_ParseNumbered(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple",
			input: "1. Alpha.\n2. Beta.",
			want:  []string{"Alpha.", "Beta."},
		},
		{
			name:  "continuation lines join previous answer",
			input: "1. The candidate worked\nat Acme Corp.\n2. Eight years.",
			want:  []string{"The candidate worked at Acme Corp.", "Eight years."},
		},
		{
			name:  "markup stripped",
			input: "1. **Go** and *Python*\n2. ## Eight years\n3. - Acme Corp",
			want:  []string{"Go and Python", "Eight years", "Acme Corp"},
		},
		{
			name:  "preamble ignored",
			input: "Sure, here are the answers:\n1. Alpha.",
			want:  []string{"Alpha."},
		},
		{
			name:  "no markers",
			input: "There is nothing numbered here.",
			want:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseNumbered(tc.input))
		})
	}
}

func Test_CleanMarkup(t *testing.T) {
	assert.Equal(t, "Go and Python", cleanMarkup("**Go** and *Python*"))
	assert.Equal(t, "Heading", cleanMarkup("### Heading"))
	assert.Equal(t, "bullet", cleanMarkup("- bullet"))
	assert.Equal(t, "dot", cleanMarkup("• dot"))
}
