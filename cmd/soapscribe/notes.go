package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/pipeline"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/synth"
	"github.com/leonardotrapani/soapscribe/internal/templates"
	"github.com/spf13/cobra"
)

// noteFlags are shared by transcribe and generate
type noteFlags struct {
	patientID   string
	patientName string
	template    string
	language    string
	jsonOut     bool
}

func (f *noteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.patientID, "patient-id", "", "patient identifier")
	cmd.Flags().StringVar(&f.patientName, "patient-name", "", "patient name (required)")
	cmd.Flags().StringVar(&f.template, "template", "", `template reference, e.g. "soap" or "soap@1" (default from config)`)
	cmd.Flags().StringVar(&f.language, "language", "", "spoken language code (default from config)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the result as JSON")
}

func (f *noteFlags) templateRef(a *app) (templates.Ref, error) {
	if f.template == "" {
		return a.cfg.DefaultTemplate(), nil
	}
	ref, err := templates.ParseRef(f.template)
	if err != nil {
		return templates.Ref{}, apperr.Wrap(apperr.InvalidRequest, "invalid template reference", err)
	}
	return ref, nil
}

func (f *noteFlags) lang(a *app) string {
	if f.language == "" {
		return a.cfg.Transcription.Language
	}
	return f.language
}

func (f *noteFlags) patient() pipeline.Patient {
	return pipeline.Patient{ID: f.patientID, Name: f.patientName}
}

func transcribeCmd() *cobra.Command {
	var flags noteFlags
	var tier string

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a recording and store the generated note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return apperr.Wrap(apperr.InvalidRequest, "cannot read audio file", err)
			}

			a, err := openApp(cmd.Context(), needs{audio: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := flags.templateRef(a)
			if err != nil {
				return err
			}
			if tier == "" {
				tier = a.cfg.Transcription.Tier
			}
			t, err := provider.ParseTier(tier)
			if err != nil {
				return apperr.Wrap(apperr.InvalidRequest, "invalid tier", err)
			}

			res, err := a.pipeline.Run(cmd.Context(), pipeline.AudioRequest{
				Audio:    data,
				Language: flags.lang(a),
				Tier:     t,
				Template: ref,
				Patient:  flags.patient(),
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, flags.jsonOut)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&tier, "tier", "", "transcription tier: fast or accurate (default from config)")
	return cmd
}

func generateCmd() *cobra.Command {
	var flags noteFlags
	var transcript, file string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and store a note from an existing transcript",
		Long: `Generate a note from a transcript given with --transcript, read from
--file, or piped on stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTranscript(cmd.InOrStdin(), transcript, file)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), needs{generate: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := flags.templateRef(a)
			if err != nil {
				return err
			}
			res, err := a.pipeline.RunText(cmd.Context(), pipeline.TextRequest{
				Transcript: text,
				Language:   flags.lang(a),
				Template:   ref,
				Patient:    flags.patient(),
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, flags.jsonOut)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&transcript, "transcript", "", "transcript text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the transcript from a file")
	cmd.MarkFlagsMutuallyExclusive("transcript", "file")
	return cmd
}

func readTranscript(stdin io.Reader, transcript, file string) (string, error) {
	switch {
	case transcript != "":
		return transcript, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", apperr.Wrap(apperr.InvalidRequest, "cannot read transcript file", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", apperr.Wrap(apperr.InvalidRequest, "cannot read transcript from stdin", err)
		}
		return string(data), nil
	}
}

func printResult(w io.Writer, res *pipeline.Result, asJSON bool) error {
	if asJSON {
		out := map[string]any{
			"note":             res.Note,
			"missing_sections": res.MissingSections,
			"elapsed_ms":       res.Elapsed.Milliseconds(),
		}
		if res.Transcript != nil {
			out["transcript"] = res.Transcript.Text
		}
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "Note %s for %s (template %s@%d, %s)\n\n", res.Note.ID, res.Note.PatientName,
		res.Note.TemplateID, res.Note.TemplateVersion, res.Elapsed.Round(time.Millisecond))
	fmt.Fprintln(w, res.Note.Content)
	if len(res.MissingSections) > 0 {
		fmt.Fprintf(w, "\nwarning: note is missing sections: %s\n", strings.Join(res.MissingSections, ", "))
	}
	return nil
}

func notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read stored notes",
	}
	cmd.AddCommand(notesListCmd(), notesShowCmd())
	return cmd
}

func notesListCmd() *cobra.Command {
	var patient string
	var by string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, optionally for one patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			kind, err := parseKeyKind(by)
			if err != nil {
				return err
			}
			list, err := listNotes(cmd.Context(), a.store, kind, patient)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "no notes")
				return nil
			}
			for _, n := range list {
				fmt.Fprintf(w, "%s  %s  %-20s %s@%d\n", n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"),
					patientLabel(n), n.TemplateID, n.TemplateVersion)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&patient, "patient", "", "patient key")
	cmd.Flags().StringVar(&by, "by", string(notes.ByID), "match the patient key against: id, name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func listNotes(ctx context.Context, store notes.Store, by notes.KeyKind, patient string) ([]notes.Note, error) {
	if patient == "" {
		return store.ListAll(ctx)
	}
	return store.ListByPatient(ctx, by, patient)
}

func parseKeyKind(s string) (notes.KeyKind, error) {
	kind, err := notes.ParseKeyKind(s)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidRequest, "invalid --by", err)
	}
	return kind, nil
}

func patientLabel(n notes.Note) string {
	if n.PatientID == "" {
		return n.PatientName
	}
	return fmt.Sprintf("%s (%s)", n.PatientName, n.PatientID)
}

func notesShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <note-id>",
		Short: "Print one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), n)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Patient:  %s\n", patientLabel(*n))
			fmt.Fprintf(w, "Created:  %s\n", n.CreatedAt.Local().Format(time.RFC1123))
			fmt.Fprintf(w, "Template: %s@%d\n\n", n.TemplateID, n.TemplateVersion)
			fmt.Fprintln(w, n.Content)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var by string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <patient>",
		Short: "Analyze all notes of a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKeyKind(by)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), needs{analysis: true})
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.store.Case(cmd.Context(), kind, args[0])
			if err != nil {
				return err
			}
			analysis, err := a.aggregator.Analyze(cmd.Context(), c)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), analysis)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Case analysis for %s (%d notes)\n\n", analysis.PatientKey, analysis.NoteCount)
			for _, facet := range []struct{ title, text string }{
				{"Summary", analysis.Facets.Summary},
				{"Patterns", analysis.Facets.Patterns},
				{"Changes", analysis.Facets.Changes},
				{"Concerns", analysis.Facets.Concerns},
				{"Follow-up", analysis.Facets.FollowUp},
			} {
				if facet.text != "" {
					fmt.Fprintf(w, "%s:\n%s\n\n", facet.title, facet.text)
				}
			}
			if analysis.Facets == (synth.Facets{}) {
				fmt.Fprintln(w, analysis.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", string(notes.ByID), "match the patient key against: id, name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect published note templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates and their versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg, nil)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, t := range registry.List() {
				fmt.Fprintf(w, "%-12s %s  %s\n", t.Key(), t.Fingerprint()[:12], t.Title)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "show <ref>",
		Short: `Print a template's sections and prompt ("soap" or "soap@1")`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := templates.ParseRef(args[0])
			if err != nil {
				return apperr.Wrap(apperr.InvalidRequest, "invalid template reference", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg, nil)
			if err != nil {
				return err
			}
			t, err := registry.Resolve(ref)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s - %s\n", t.Key(), t.Title)
			fmt.Fprintf(w, "Fingerprint: %s\n", t.Fingerprint())
			fmt.Fprintf(w, "Sections:    %s\n\n", strings.Join(t.SectionTitles(), ", "))
			fmt.Fprintln(w, t.Text())
			return nil
		},
	})
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
