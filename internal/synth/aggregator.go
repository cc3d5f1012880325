package synth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/llm"
	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/notes"
)

// Facet headings requested from the generator, in output order
const (
	FacetSummary  = "Summary"
	FacetPatterns = "Patterns Across Visits"
	FacetChanges  = "Notable Changes"
	FacetConcerns = "Concerns"
	FacetFollowUp = "Follow-up Recommendations"
)

var facetHeadings = []string{FacetSummary, FacetPatterns, FacetChanges, FacetConcerns, FacetFollowUp}

const analysisSystem = "You are an experienced physician reviewing a patient's prior visit notes. " +
	"You summarize only what the notes state and never add diagnoses, findings or recommendations that the notes do not support."

// Facets is the parsed form of an analysis. Fields are empty when the
// generator omitted the heading.
type Facets struct {
	Summary  string `json:"summary"`
	Patterns string `json:"patterns"`
	Changes  string `json:"changes"`
	Concerns string `json:"concerns"`
	FollowUp string `json:"follow_up"`
}

// Analysis is a longitudinal summary of one patient's notes. It is never stored.
type Analysis struct {
	PatientKey  string        `json:"patient_key"`
	By          notes.KeyKind `json:"by,omitempty"`
	NoteCount   int           `json:"note_count"`
	Order       notes.Order   `json:"order"`
	Text        string        `json:"text"`
	Facets      Facets        `json:"facets"`
	Model       string        `json:"model,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Aggregator analyzes a patient case in a single generation pass
type Aggregator struct {
	gen llm.Generator
	cfg Config
	now func() time.Time
	log *logger.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(gen llm.Generator, cfg Config, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Nop()
	}
	return &Aggregator{gen: gen, cfg: cfg, now: time.Now, log: log.Named("aggregator")}
}

// Analyze summarizes the case's notes in the order the case carries them.
// An empty case fails with empty_case before the generator is called.
func (a *Aggregator) Analyze(ctx context.Context, c notes.Case) (*Analysis, error) {
	if c.Empty() {
		return nil, apperr.Newf(apperr.EmptyCase, "no notes for patient %q", c.PatientKey)
	}
	order := c.Order
	if order == "" {
		order = notes.OldestFirst
	}

	start := time.Now()
	out, err := a.gen.Generate(ctx, llm.Request{
		System:      analysisSystem,
		Prompt:      AnalysisPrompt(c.Notes, order),
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		a.log.Error("case analysis failed",
			logger.String("patient", c.PatientKey),
			logger.Int("notes", len(c.Notes)),
			logger.Error(err))
		return nil, apperr.Wrap(apperr.GenerationFailure, "analyze case", err)
	}

	text := strings.TrimSpace(out)
	if text == "" {
		return nil, apperr.New(apperr.GenerationFailure, "generator returned an empty analysis")
	}

	a.log.Info("case analyzed",
		logger.String("patient", c.PatientKey),
		logger.Int("notes", len(c.Notes)),
		logger.Duration("elapsed", elapsed))

	return &Analysis{
		PatientKey:  c.PatientKey,
		By:          c.By,
		NoteCount:   len(c.Notes),
		Order:       order,
		Text:        text,
		Facets:      ParseFacets(text),
		Model:       a.cfg.Model,
		GeneratedAt: a.now().UTC(),
	}, nil
}

// VisitHeader labels one note in the analysis corpus
func VisitHeader(n int, note notes.Note) string {
	return fmt.Sprintf("### Visit %d - %s (note %s)", n, note.CreatedAt.UTC().Format(time.RFC3339), note.ID)
}

// AnalysisPrompt builds the corpus and instructions for a case.
// The notes are concatenated in the given order, which the prompt states.
func AnalysisPrompt(list []notes.Note, order notes.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below are %d clinical notes for one patient, ordered %s.\n", len(list), order.Describe())
	b.WriteString("Review them together and write an analysis with exactly these headings, in this order:\n\n")
	for _, h := range facetHeadings {
		fmt.Fprintf(&b, "## %s\n", h)
	}
	b.WriteString("\nUse only information stated in the notes. Describe changes in the order the visits occurred. ")
	b.WriteString("If the notes give nothing for a heading, write \"None documented\" under it.\n\n")
	b.WriteString("Notes:\n\n")

	for i, n := range list {
		b.WriteString(VisitHeader(i+1, n))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(n.Content))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ParseFacets splits generated text by facet heading. Headings are matched
// case-insensitively with optional markdown markers and a trailing colon.
func ParseFacets(text string) Facets {
	bodies := make(map[string]*strings.Builder)
	var current string

	for _, line := range strings.Split(text, "\n") {
		if h, ok := facetHeading(line); ok {
			current = h
			if bodies[h] == nil {
				bodies[h] = &strings.Builder{}
			}
			continue
		}
		if current != "" {
			bodies[current].WriteString(line)
			bodies[current].WriteString("\n")
		}
	}

	body := func(h string) string {
		if b := bodies[h]; b != nil {
			return strings.TrimSpace(b.String())
		}
		return ""
	}
	return Facets{
		Summary:  body(FacetSummary),
		Patterns: body(FacetPatterns),
		Changes:  body(FacetChanges),
		Concerns: body(FacetConcerns),
		FollowUp: body(FacetFollowUp),
	}
}

func facetHeading(line string) (string, bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#* ")
	s = strings.TrimRight(s, "*: ")
	for _, h := range facetHeadings {
		if strings.EqualFold(s, h) {
			return h, true
		}
	}
	return "", false
}
