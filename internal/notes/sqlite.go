package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/logger"
)

const noteColumns = `id, patient_id, patient_name, content, template_id, template_version, created_at`

// SQLiteStore is a Store backed by a sqlite database file
type SQLiteStore struct {
	db    *sql.DB
	order Order
	now   func() time.Time
	log   *logger.Logger
}

// Option configures a SQLiteStore
type Option func(*SQLiteStore)

// WithClock overrides the creation timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// OpenSQLite opens (creating if needed) the note database at path.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string, order Order, log *logger.Logger, opts ...Option) (*SQLiteStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("notes")

	if order == "" {
		order = OldestFirst
	}
	if _, err := ParseOrder(string(order)); err != nil {
		return nil, err
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// one writer keeps seq assignment serialized
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, order: order, now: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}

	log.Info("note store opened", logger.String("path", path), logger.String("order", string(order)))
	return s, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS soap_notes (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL UNIQUE,
			patient_id TEXT NOT NULL,
			patient_name TEXT NOT NULL,
			content TEXT NOT NULL,
			template_id TEXT NOT NULL DEFAULT '',
			template_version INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create soap_notes table: %w", err)
	}

	indexes := map[string]string{
		"idx_soap_notes_patient_id":   "patient_id",
		"idx_soap_notes_patient_name": "patient_name",
		"idx_soap_notes_created_at":   "created_at",
	}
	for name, column := range indexes {
		if _, err := db.Exec(fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON soap_notes(%s)`, name, column)); err != nil {
			return fmt.Errorf("create %s index: %w", column, err)
		}
	}
	return nil
}

// Order returns the configured presentation order
func (s *SQLiteStore) Order() Order {
	return s.order
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Create stores a new note. Content and patient name must be non-empty.
func (s *SQLiteStore) Create(ctx context.Context, n NewNote) (*Note, error) {
	if strings.TrimSpace(n.Content) == "" {
		return nil, apperr.New(apperr.StoreFailure, "note content is empty")
	}
	if strings.TrimSpace(n.PatientName) == "" {
		return nil, apperr.New(apperr.StoreFailure, "patient name is empty")
	}

	note := &Note{
		ID:              uuid.NewString(),
		PatientID:       n.PatientID,
		PatientName:     n.PatientName,
		Content:         n.Content,
		TemplateID:      n.TemplateID,
		TemplateVersion: n.TemplateVersion,
		CreatedAt:       s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO soap_notes (`+noteColumns+`, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM soap_notes))`,
		note.ID,
		note.PatientID,
		note.PatientName,
		note.Content,
		note.TemplateID,
		note.TemplateVersion,
		note.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreFailure, "insert note", err)
	}

	s.log.Info("note stored",
		logger.String("note_id", note.ID),
		logger.String("patient_id", note.PatientID),
		logger.Int("content_chars", len(note.Content)))
	return note, nil
}

// Get returns one note by id
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM soap_notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "note %s not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreFailure, "read note", err)
	}
	return note, nil
}

// ListByPatient returns the notes whose patient id (ByID) or patient name
// (ByName) equals key
func (s *SQLiteStore) ListByPatient(ctx context.Context, by KeyKind, key string) ([]Note, error) {
	if strings.TrimSpace(key) == "" {
		return nil, apperr.New(apperr.InvalidRequest, "patient key is empty")
	}
	switch by {
	case ByID:
		return s.query(ctx, `WHERE patient_id = ?`, key)
	case ByName:
		return s.query(ctx, `WHERE patient_name = ?`, key)
	}
	return nil, apperr.Newf(apperr.InvalidRequest, "invalid patient key kind %q", by)
}

// ListAll returns every note
func (s *SQLiteStore) ListAll(ctx context.Context) ([]Note, error) {
	return s.query(ctx, "")
}

// Case collects a patient's notes for analysis
func (s *SQLiteStore) Case(ctx context.Context, by KeyKind, key string) (Case, error) {
	notes, err := s.ListByPatient(ctx, by, key)
	if err != nil {
		return Case{}, err
	}
	return Case{PatientKey: key, By: by, Order: s.order, Notes: notes}, nil
}

func (s *SQLiteStore) query(ctx context.Context, where string, args ...any) ([]Note, error) {
	dir := "ASC"
	if s.order == NewestFirst {
		dir = "DESC"
	}
	q := fmt.Sprintf(`SELECT %s FROM soap_notes %s ORDER BY created_at %s, seq %s`, noteColumns, where, dir, dir)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreFailure, "query notes", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.StoreFailure, "scan note", err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.StoreFailure, "iterate notes", err)
	}
	return notes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*Note, error) {
	var (
		n       Note
		created int64
	)
	if err := row.Scan(&n.ID, &n.PatientID, &n.PatientName, &n.Content, &n.TemplateID, &n.TemplateVersion, &created); err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(0, created).UTC()
	return &n, nil
}
