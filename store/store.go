package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/progdex/chord"
	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/util"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("analysis not found")

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	global_key TEXT NOT NULL,
	num_slots INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
CREATE TABLE IF NOT EXISTS pattern_matches (
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	start_index INTEGER NOT NULL,
	kind TEXT NOT NULL,
	start_offset REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pattern_matches_kind ON pattern_matches(kind);
CREATE TABLE IF NOT EXISTS slot_chords (
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	slot_index INTEGER NOT NULL,
	chord_key TEXT NOT NULL,
	start_offset REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_slot_chords_key ON slot_chords(chord_key);
`

// Store keeps analysis runs in a SQLite file.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := util.EnsureParentDir(path); err != nil {
			return nil, errors.Wrap(err, "creating store directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// a single connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating tables")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a, assigning it an ID if it has none, and returns the ID.
func (s *Store) Save(ctx context.Context, a *model.Analysis) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return "", errors.Wrap(err, "encoding analysis")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, source, created_at, global_key, num_slots, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Source, a.CreatedAt.UnixMilli(), a.Keys.Global.String(), len(a.Slots), string(payload))
	if err != nil {
		return "", errors.Wrap(err, "inserting analysis")
	}
	for _, m := range a.Matches {
		var offset float64
		if m.StartIndex >= 0 && m.StartIndex < len(a.Slots) {
			offset = a.Slots[m.StartIndex].StartOffset
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pattern_matches (analysis_id, start_index, kind, start_offset) VALUES (?, ?, ?, ?)`,
			a.ID, m.StartIndex, string(m.Kind), offset)
		if err != nil {
			return "", errors.Wrap(err, "inserting pattern match")
		}
	}
	for i, slot := range a.Slots {
		key := chord.CreateChordKey(model.NewPitchClassSet(slot.Chord.PitchClasses()...))
		_, err = tx.ExecContext(ctx,
			`INSERT INTO slot_chords (analysis_id, slot_index, chord_key, start_offset) VALUES (?, ?, ?, ?)`,
			a.ID, i, key, slot.StartOffset)
		if err != nil {
			return "", errors.Wrap(err, "inserting slot chord")
		}
	}
	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "committing analysis")
	}
	return a.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.Analysis, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "id %v", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying analysis")
	}

	var a model.Analysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, errors.Wrap(err, "decoding analysis")
	}
	return &a, nil
}

// List returns the newest analyses first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]model.AnalysisSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.source, a.global_key, a.num_slots, a.created_at,
			(SELECT COUNT(*) FROM pattern_matches m WHERE m.analysis_id = a.id)
		FROM analyses a
		ORDER BY a.created_at DESC, a.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing analyses")
	}
	defer rows.Close()

	res := []model.AnalysisSummary{}
	for rows.Next() {
		var sum model.AnalysisSummary
		if err := rows.Scan(&sum.ID, &sum.Source, &sum.GlobalKey, &sum.NumSlots, &sum.CreatedAt, &sum.NumMatch); err != nil {
			return nil, errors.Wrap(err, "scanning analysis")
		}
		res = append(res, sum)
	}
	return res, errors.Wrap(rows.Err(), "listing analyses")
}

// CountPatterns tallies stored matches by kind across every analysis.
func (s *Store) CountPatterns(ctx context.Context) (map[model.PatternKind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM pattern_matches GROUP BY kind`)
	if err != nil {
		return nil, errors.Wrap(err, "counting patterns")
	}
	defer rows.Close()

	res := make(map[model.PatternKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, errors.Wrap(err, "scanning pattern count")
		}
		res[model.PatternKind(kind)] = n
	}
	return res, errors.Wrap(rows.Err(), "counting patterns")
}

// Search finds slots whose reduced chord has the given chord key, as made by
// chord.CreateChordKey, ordered by analysis and then slot.
func (s *Store) Search(ctx context.Context, chordKey string, limit int) ([]model.SearchResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.analysis_id, a.source, c.slot_index, c.start_offset
		FROM slot_chords c JOIN analyses a ON a.id = c.analysis_id
		WHERE c.chord_key = ?
		ORDER BY a.created_at DESC, c.analysis_id, c.slot_index
		LIMIT ?`, chordKey, limit)
	if err != nil {
		return nil, errors.Wrap(err, "searching chords")
	}
	defer rows.Close()

	res := []model.SearchResult{}
	for rows.Next() {
		var r model.SearchResult
		if err := rows.Scan(&r.AnalysisID, &r.Source, &r.SlotIndex, &r.StartOffset); err != nil {
			return nil, errors.Wrap(err, "scanning search result")
		}
		res = append(res, r)
	}
	return res, errors.Wrap(rows.Err(), "searching chords")
}
