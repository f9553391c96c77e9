package main

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/nkosuri/docqa/llm"
)

// NoAnswer is the fixed reply for questions the document does not
// cover. The prompt instructs the model to use it verbatim, and it
// pads any answers the model failed to produce.
const NoAnswer = "This information is not available in the provided document."

// Synthesizer answers a batch of questions in one completion, parsing
// the numbered reply back into per-question answers. When the batch
// path fails it falls back to one call per question, paced by a rate
// limiter.
type Synthesizer struct {
	log     *slog.Logger
	gen     llm.Generator
	retry   llm.Policy
	limiter *rate.Limiter
}

func NewSynthesizer(log *slog.Logger, gen llm.Generator, retry llm.Policy, fallbackPerSec float64) *Synthesizer {
	return &Synthesizer{
		log:     log,
		gen:     gen,
		retry:   retry,
		limiter: rate.NewLimiter(rate.Limit(fallbackPerSec), 1),
	}
}

// Answer returns exactly one answer per question, in question order.
func (s *Synthesizer) Answer(ctx context.Context, contextText string, questions []string) ([]string, error) {
	if len(questions) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(contextText) == "" {
		return s.allNoAnswer(questions), nil
	}

	var completion string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var genErr error
		completion, genErr = s.gen.Generate(ctx, batchPrompt(contextText, questions))
		return genErr
	})
	if err != nil {
		s.log.Warn("batch answer failed, falling back to serial", "questions", len(questions), "error", err)
		return s.serial(ctx, contextText, questions)
	}

	answers := parseNumbered(completion)
	if len(answers) == 0 {
		s.log.Warn("could not parse numbered answers, falling back to serial", "questions", len(questions))
		return s.serial(ctx, contextText, questions)
	}

	return pad(answers, len(questions)), nil
}

// serial asks each question in its own completion. Individual
// failures degrade to NoAnswer; only context cancellation aborts the
// batch.
func (s *Synthesizer) serial(ctx context.Context, contextText string, questions []string) ([]string, error) {
	answers := make([]string, len(questions))
	for i, q := range questions {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fallback pacing interrupted: %w", err)
		}

		var completion string
		err := s.retry.Do(ctx, func(ctx context.Context) error {
			var genErr error
			completion, genErr = s.gen.Generate(ctx, singlePrompt(contextText, q))
			return genErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fallback aborted at question %d: %w", i+1, ctx.Err())
			}
			s.log.Warn("fallback answer failed", "question", q, "error", err)
			answers[i] = NoAnswer
			continue
		}

		answers[i] = cleanMarkup(completion)
		if answers[i] == "" {
			answers[i] = NoAnswer
		}
	}

	return answers, nil
}

func (s *Synthesizer) allNoAnswer(questions []string) []string {
	answers := make([]string, len(questions))
	for i := range answers {
		answers[i] = NoAnswer
	}

	return answers
}

func batchPrompt(contextText string, questions []string) string {
	var sb strings.Builder
	sb.WriteString("Answer the questions using only the document context below.\n")
	sb.WriteString("Reply with one numbered line per question, in the same order.\n")
	sb.WriteString("If the context does not contain the answer, reply exactly: ")
	sb.WriteString(NoAnswer)
	sb.WriteString("\n\nDocument context:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nQuestions:\n")
	for i, q := range questions {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(q)
		sb.WriteString("\n")
	}

	return sb.String()
}

func singlePrompt(contextText string, question string) string {
	return fmt.Sprintf(
		"Answer the question using only the document context below.\nIf the context does not contain the answer, reply exactly: %s\n\nDocument context:\n%s\n\nQuestion: %s",
		NoAnswer, contextText, question)
}

var answerMarkerRe = regexp.MustCompile(`^(\d+)\.\s*(.+)`)

// parseNumbered splits a completion into answers by numbered markers,
// in marker-appearance order. Lines between markers continue the
// preceding answer.
func parseNumbered(completion string) []string {
	var answers []string
	current := -1

	for _, line := range strings.Split(completion, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := answerMarkerRe.FindStringSubmatch(line); m != nil {
			answers = append(answers, cleanMarkup(m[2]))
			current = len(answers) - 1
			continue
		}
		if current >= 0 {
			answers[current] = strings.TrimSpace(answers[current] + " " + cleanMarkup(line))
		}
	}

	return answers
}

// pad adjusts the parsed answers to exactly n entries: missing ones
// become NoAnswer, extras are dropped.
func pad(answers []string, n int) []string {
	if len(answers) > n {
		return answers[:n]
	}
	for len(answers) < n {
		answers = append(answers, NoAnswer)
	}

	return answers
}

var markupReplacer = strings.NewReplacer("**", "", "*", "", "###", "", "##", "", "#", "")

// cleanMarkup strips the markdown the model tends to add despite
// instructions.
func cleanMarkup(s string) string {
	s = markupReplacer.Replace(s)
	s = strings.TrimPrefix(s, "- ")
	s = strings.TrimPrefix(s, "• ")

	return strings.TrimSpace(s)
}
