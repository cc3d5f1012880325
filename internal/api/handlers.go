package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/language"
	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/pipeline"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/templates"
	"github.com/leonardotrapani/soapscribe/internal/transcriber"
)

// multipart parts beyond this are spooled to disk by net/http
const multipartMemory = 32 << 20

type transcriptView struct {
	Text       string   `json:"text"`
	Language   string   `json:"language,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
}

type noteResponse struct {
	SOAPNote        string         `json:"soap_note"`
	Note            *notes.Note    `json:"note"`
	Transcript      transcriptView `json:"transcript"`
	MissingSections []string       `json:"missing_sections,omitempty"`
	ElapsedMS       int64          `json:"elapsed_ms"`
}

type createNoteRequest struct {
	Transcript  string `json:"transcript"`
	Language    string `json:"language"`
	Template    string `json:"template"`
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
}

type templateView struct {
	ID          string   `json:"id"`
	Version     int      `json:"version"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Sections    []string `json:"sections"`
	Fingerprint string   `json:"fingerprint"`
	Text        string   `json:"text,omitempty"`
}

// GetHealth reports liveness
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Transcribe accepts a multipart recording and returns the stored note
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidRequest, "invalid multipart upload", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidRequest, "missing file field", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidRequest, "read upload", err))
		return
	}

	lang, err := h.language(r.FormValue("language"))
	if err != nil {
		writeError(w, err)
		return
	}
	tier, err := h.tier(r.FormValue("tier"))
	if err != nil {
		writeError(w, err)
		return
	}
	ref, err := h.templateRef(r.FormValue("template"))
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	res, err := h.runner.Run(ctx, pipeline.AudioRequest{
		Audio:    data,
		Language: lang,
		Tier:     tier,
		Template: ref,
		Patient: pipeline.Patient{
			ID:   strings.TrimSpace(r.FormValue("patient_id")),
			Name: strings.TrimSpace(r.FormValue("patient_name")),
		},
	})
	if err != nil {
		h.logFailure("transcribe", err)
		writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, newNoteResponse(res))
}

// CreateNote generates a note from a JSON transcript
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidRequest, "invalid JSON", err))
		return
	}

	lang, err := h.language(req.Language)
	if err != nil {
		writeError(w, err)
		return
	}
	ref, err := h.templateRef(req.Template)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	res, err := h.runner.RunText(ctx, pipeline.TextRequest{
		Transcript: req.Transcript,
		Language:   lang,
		Template:   ref,
		Patient: pipeline.Patient{
			ID:   strings.TrimSpace(req.PatientID),
			Name: strings.TrimSpace(req.PatientName),
		},
	})
	if err != nil {
		h.logFailure("create note", err)
		writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, newNoteResponse(res))
}

// keyKind reads ?by= (id or name, default id)
func keyKind(r *http.Request) (notes.KeyKind, error) {
	by, err := notes.ParseKeyKind(r.URL.Query().Get("by"))
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidRequest, "invalid patient key kind", err)
	}
	return by, nil
}

// ListNotes returns every note, or one patient's notes with ?patient= and ?by=
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	by, err := keyKind(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var list []notes.Note
	if key := strings.TrimSpace(r.URL.Query().Get("patient")); key != "" {
		list, err = h.store.ListByPatient(r.Context(), by, key)
	} else {
		list, err = h.store.ListAll(r.Context())
	}
	if err != nil {
		h.logFailure("list notes", err)
		writeError(w, err)
		return
	}
	if list == nil {
		list = []notes.Note{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count": len(list),
		"notes": list,
	})
}

// GetNote returns a single note
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, note)
}

// GetPatientNotes returns a patient's case in the configured order
func (h *Handler) GetPatientNotes(w http.ResponseWriter, r *http.Request) {
	by, err := keyKind(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.store.Case(r.Context(), by, chi.URLParam(r, "key"))
	if err != nil {
		h.logFailure("patient notes", err)
		writeError(w, err)
		return
	}
	list := c.Notes
	if list == nil {
		list = []notes.Note{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"patient_key": c.PatientKey,
		"by":          c.By,
		"order":       c.Order,
		"count":       len(list),
		"notes":       list,
	})
}

// AnalyzePatient runs a longitudinal analysis over a patient's notes
func (h *Handler) AnalyzePatient(w http.ResponseWriter, r *http.Request) {
	by, err := keyKind(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.store.Case(r.Context(), by, chi.URLParam(r, "key"))
	if err != nil {
		h.logFailure("analysis case", err)
		writeError(w, err)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	analysis, err := h.analyzer.Analyze(ctx, c)
	if err != nil {
		h.logFailure("analysis", err)
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, analysis)
}

// ListTemplates returns every published template version
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()
	views := make([]templateView, 0, len(list))
	for _, t := range list {
		views = append(views, newTemplateView(t, false))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"count":     len(views),
		"templates": views,
	})
}

// GetTemplate returns one template including its prompt text
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	ref, err := templates.ParseRef(chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidRequest, "invalid template reference", err))
		return
	}
	t, err := h.registry.Resolve(ref)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, newTemplateView(t, true))
}

func (h *Handler) language(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		raw = h.opts.DefaultLanguage
	}
	code, err := language.Validate(raw)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidRequest, "invalid language", err)
	}
	return code, nil
}

func (h *Handler) tier(raw string) (provider.Tier, error) {
	if strings.TrimSpace(raw) == "" {
		if h.opts.DefaultTier != "" {
			return h.opts.DefaultTier, nil
		}
	}
	tier, err := provider.ParseTier(raw)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidRequest, "invalid tier", err)
	}
	return tier, nil
}

func (h *Handler) templateRef(raw string) (templates.Ref, error) {
	if strings.TrimSpace(raw) == "" {
		return h.opts.DefaultTemplate, nil
	}
	ref, err := templates.ParseRef(raw)
	if err != nil {
		return templates.Ref{}, apperr.Wrap(apperr.InvalidRequest, "invalid template reference", err)
	}
	return ref, nil
}

func (h *Handler) logFailure(op string, err error) {
	kind := apperr.KindOf(err)
	if apperr.HTTPStatus(kind) < http.StatusInternalServerError {
		h.logger.Warn(op+" rejected", logger.String("kind", string(kind)), logger.Error(err))
		return
	}
	h.logger.Error(op+" failed", logger.String("kind", string(kind)), logger.Error(err))
}

func newNoteResponse(res *pipeline.Result) noteResponse {
	view := transcriptView{
		Text:     res.Transcript.Text,
		Language: res.Transcript.Language,
		Provider: res.Transcript.Provider,
		Model:    res.Transcript.Model,
	}
	if res.Transcript.Confidence != transcriber.NoConfidence {
		c := res.Transcript.Confidence
		view.Confidence = &c
	}
	return noteResponse{
		SOAPNote:        res.Note.Content,
		Note:            res.Note,
		Transcript:      view,
		MissingSections: res.MissingSections,
		ElapsedMS:       res.Elapsed.Milliseconds(),
	}
}

func newTemplateView(t *templates.Template, withText bool) templateView {
	v := templateView{
		ID:          t.ID,
		Version:     t.Version,
		Title:       t.Title,
		Description: t.Description,
		Sections:    t.SectionTitles(),
		Fingerprint: t.Fingerprint(),
	}
	if withText {
		v.Text = t.Text()
	}
	return v
}
