package chunker

import (
	"regexp"
	"strings"
)

// Section header patterns common to resumes.
var resumeSectionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(contact|personal)\s*(information|details)`),
	regexp.MustCompile(`(?i)(skills|technical\s*skills|competencies)`),
	regexp.MustCompile(`(?i)(work\s*experience|experience|employment)`),
	regexp.MustCompile(`(?i)(education|academic|qualifications)`),
	regexp.MustCompile(`(?i)(projects?|project\s*work)`),
	regexp.MustCompile(`(?i)(certifications?|awards?|achievements?)`),
	regexp.MustCompile(`(?i)(objective|summary|profile)`),
}

var (
	nameRe  = regexp.MustCompile(`[A-Z][a-z]+ [A-Z][a-z]+`)
	phoneRe = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`)
)

// ResumeDetector splits a resume into its labeled sections (skills,
// experience, education, ...). Lines before the first recognized
// header are covered by Header instead.
type ResumeDetector struct{}

func (d *ResumeDetector) Detect(text string) []Section {
	var sections []Section
	var label string
	var content []string

	flush := func() {
		body := strings.TrimSpace(strings.Join(content, "\n"))
		if label != "" && body != "" {
			sections = append(sections, Section{Label: label, Content: body})
		}
		content = content[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isSectionHeader(line) {
			flush()
			label = line
			continue
		}
		if label != "" {
			content = append(content, line)
		}
	}
	flush()

	return sections
}

func isSectionHeader(line string) bool {
	for _, re := range resumeSectionRes {
		if re.MatchString(line) {
			return true
		}
	}

	return false
}

// Header extracts the identity block (name, email, phone, profile
// links) from the first lines of the document.
func (d *ResumeDetector) Header(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	var header []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(line, "@") ||
			strings.Contains(lower, "linkedin") ||
			strings.Contains(lower, "github") ||
			nameRe.MatchString(line) ||
			phoneRe.MatchString(line) {
			header = append(header, line)
		}
	}

	return strings.Join(header, "\n")
}

// ParagraphDetector accumulates paragraphs toward a target size,
// carrying a short word tail across section boundaries as overlap.
type ParagraphDetector struct {
	Target  int
	Overlap int
}

func (d *ParagraphDetector) Detect(text string) []Section {
	target := d.Target
	if target <= 0 {
		target = DefaultChunkSize
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var sections []Section
	var current string
	for _, para := range paragraphs {
		if current != "" && len(current)+len(para) > target {
			sections = append(sections, Section{Content: current})
			current = d.tail(current) + para
			continue
		}
		if current == "" {
			current = para
		} else {
			current += "\n\n" + para
		}
	}
	if strings.TrimSpace(current) != "" {
		sections = append(sections, Section{Content: strings.TrimSpace(current)})
	}

	return sections
}

// tail returns the trailing overlap words of a finished section, as
// the seed for the next one.
func (d *ParagraphDetector) tail(s string) string {
	n := d.Overlap / 10
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	if len(words) > n {
		words = words[len(words)-n:]
	}

	return strings.Join(words, " ") + "\n\n"
}
