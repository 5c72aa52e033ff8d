package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jsphweid/progdex/analysis"
	"github.com/jsphweid/progdex/chord"
	"github.com/jsphweid/progdex/logging"
	"github.com/jsphweid/progdex/midi"
	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/pattern"
	"github.com/jsphweid/progdex/quantize"
	"github.com/jsphweid/progdex/render"
	"github.com/jsphweid/progdex/sample"
	"github.com/jsphweid/progdex/store"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"gitlab.com/gomidi/midi/v2/smf"
)

// maxBody caps uploaded MIDI files.
const maxBody = 16 << 20

type Store interface {
	Save(ctx context.Context, a *model.Analysis) (string, error)
	Get(ctx context.Context, id string) (*model.Analysis, error)
	List(ctx context.Context, limit int) ([]model.AnalysisSummary, error)
	Search(ctx context.Context, chordKey string, limit int) ([]model.SearchResult, error)
}

// MetadataLookup finds catalog details for a source file name.
type MetadataLookup interface {
	LookupOne(filename string) (*model.PieceMetadata, bool, error)
}

type Server struct {
	// Metadata, when set, fills in analyses that name their source.
	Metadata MetadataLookup

	opts  analysis.Options
	store Store
	log   logging.Logger
}

// New builds a server. st may be nil, which disables saving and history.
func New(opts analysis.Options, st Store, log logging.Logger) *Server {
	if log == nil {
		log = logging.GetGlobalLogger()
	}
	return &Server{opts: opts, store: st, log: log}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/analyze", s.HandleAnalyze).Methods(http.MethodPost)
	router.HandleFunc("/patterns", s.HandlePatterns).Methods(http.MethodPost)
	router.HandleFunc("/analyses", s.HandleList).Methods(http.MethodGet)
	router.HandleFunc("/search", s.HandleSearch).Methods(http.MethodGet)
	router.HandleFunc("/analyses/{id}", s.HandleGet).Methods(http.MethodGet)
	router.HandleFunc("/analyses/{id}/midi", s.HandleGetMIDI).Methods(http.MethodGet)
	router.HandleFunc("/analyses/{id}/matches/{n:[0-9]+}/midi", s.HandleGetMatchMIDI).Methods(http.MethodGet)
	return router
}

// Handler wraps the router with CORS for the given origins.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(s.Router())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.Error(err, "request failed")
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

type analyzeRequestBody struct {
	Events []model.NoteEvent `json:"events"`
}

func readEvents(r *http.Request) ([]model.NoteEvent, error) {
	body := io.LimitReader(r.Body, maxBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var input analyzeRequestBody
		if err := json.NewDecoder(body).Decode(&input); err != nil {
			return nil, errors.Wrap(err, "decoding request body")
		}
		return input.Events, nil
	}
	mf, err := midi.Parse(body)
	if err != nil {
		return nil, err
	}
	return midi.NoteEvents(mf)
}

// HandleAnalyze accepts either an SMF body or JSON {"events": [...]}.
// ?save=true stores the result, ?source= names it.
func (s *Server) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	events, err := readEvents(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := analysis.Run(r.Context(), events, s.opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, quantize.ErrMalformedInput) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}
	a.Source = r.URL.Query().Get("source")
	if a.Source != "" && s.Metadata != nil {
		md, ok, err := s.Metadata.LookupOne(a.Source)
		if err != nil {
			s.log.Warn("metadata lookup failed", logging.Fields{"source": a.Source, "error": err.Error()})
		} else if ok {
			a.Metadata = md
		}
	}

	if save, _ := strconv.ParseBool(r.URL.Query().Get("save")); save {
		if s.store == nil {
			s.writeError(w, http.StatusServiceUnavailable, errors.New("no store configured"))
			return
		}
		if _, err := s.store.Save(r.Context(), a); err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) HandlePatterns(w http.ResponseWriter, r *http.Request) {
	var input model.PatternsRequestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "decoding request body"))
		return
	}
	matches := pattern.FindPatterns(input.Labels, s.opts.Rules)
	if matches == nil {
		matches = []model.PatternMatch{}
	}
	writeJSON(w, http.StatusOK, model.PatternsResponse{Matches: matches})
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("no store configured"))
		return false
	}
	return true
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 50, nil
	}
	n, err := strconv.Atoi(raw)
	return n, errors.Wrap(err, "parsing limit")
}

func (s *Server) HandleList(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// chordKeyFromQuery takes either ?chord=0-4-7 or ?pitches=60,64,67.
func chordKeyFromQuery(r *http.Request) (string, error) {
	q := r.URL.Query()
	if key := q.Get("chord"); key != "" {
		return key, nil
	}
	raw := q.Get("pitches")
	if raw == "" {
		return "", errors.New("either chord or pitches is required")
	}
	set := make(model.PitchClassSet)
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 127 {
			return "", errors.Errorf("invalid pitch %q", part)
		}
		set[model.PitchClassOf(n)] = true
	}
	return chord.CreateChordKey(set), nil
}

// HandleSearch finds stored slots whose reduced chord has the requested
// pitch classes.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	key, err := chordKeyFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.store.Search(r.Context(), key, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*model.Analysis, bool) {
	if !s.requireStore(w) {
		return nil, false
	}
	a, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return a, true
}

func (s *Server) HandleGet(w http.ResponseWriter, r *http.Request) {
	if a, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, a)
	}
}

func (s *Server) writeMIDI(w http.ResponseWriter, mf *smf.SMF) {
	w.Header().Set("Content-Type", "audio/midi")
	w.WriteHeader(http.StatusOK)
	if _, err := mf.WriteTo(w); err != nil {
		s.log.Error(err, "writing midi response")
	}
}

func (s *Server) HandleGetMIDI(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(w, r)
	if !ok {
		return
	}
	mf, err := render.Build(a)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeMIDI(w, mf)
}

// HandleGetMatchMIDI renders only the chords of the n-th pattern match.
func (s *Server) HandleGetMatchMIDI(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(w, r)
	if !ok {
		return
	}
	n, _ := strconv.Atoi(mux.Vars(r)["n"])
	if n >= len(a.Matches) {
		s.writeError(w, http.StatusNotFound, errors.Errorf("analysis has %d matches", len(a.Matches)))
		return
	}
	mf, err := render.Build(a)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	excerpt, err := sample.Match(mf, a, a.Matches[n], render.TicksPerBeat)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeMIDI(w, excerpt)
}
