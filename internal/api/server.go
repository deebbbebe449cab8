// Package api exposes the prediction service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/cache"
	"github.com/xeo-app/xeo-backend/internal/metrics"
	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/postcontext"
	"github.com/xeo-app/xeo-backend/internal/predictor"
	"github.com/xeo-app/xeo-backend/internal/profile"
	"github.com/xeo-app/xeo-backend/internal/rewrite"
	"github.com/xeo-app/xeo-backend/internal/sources"
	"github.com/xeo-app/xeo-backend/internal/tips"
	"github.com/xeo-app/xeo-backend/internal/usage"
)

const apiPrefix = "/api/v1"

// Predictor scores drafts and resolves reply targets.
type Predictor interface {
	Predict(ctx context.Context, req predictor.Request) (*predictor.Result, error)
	LookupContext(ctx context.Context, postURL string, bypass bool, lang string) (*postcontext.Report, error)
}

// ProfileAnalyzer analyses an account's recent history.
type ProfileAnalyzer interface {
	Analyze(ctx context.Context, handle string, bypass bool) (*profile.Analysis, error)
}

// Rewriter rewrites a draft in a style.
type Rewriter interface {
	Rewrite(ctx context.Context, text, style, reference string) (*rewrite.Result, error)
}

// Cleaner removes expired cache entries.
type Cleaner interface {
	RunCleanup(ctx context.Context) (map[string]int, error)
}

// Deps are the services behind the routes. Usage and Local may be nil.
type Deps struct {
	Predictor       Predictor
	Profiles        ProfileAnalyzer
	Rewriter        Rewriter
	Cleaner         Cleaner
	Usage           *usage.Recorder
	Local           *cache.Local
	CORSOrigins     []string
	DefaultLanguage string
}

// Server holds the HTTP handlers.
type Server struct {
	deps    Deps
	started time.Time
}

// NewServer creates a Server.
func NewServer(deps Deps) *Server {
	if deps.DefaultLanguage == "" {
		deps.DefaultLanguage = tips.DefaultLanguage
	}
	return &Server{deps: deps, started: time.Now()}
}

// Routes builds the router. CORS wraps the router so preflight requests are
// answered before route matching.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.Use(requestID)

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Full paths on the root router: mux reports method mismatches as 405
	// only for routes registered there, not inside a subrouter.
	router.HandleFunc(apiPrefix+"/post/analyze", s.analyzePost).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/post/context", s.postContext).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/post/apply-tips", s.applyTips).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/post/rewrite", s.rewritePost).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/profile/{username}/analyze", s.analyzeProfile).Methods(http.MethodGet)
	router.HandleFunc(apiPrefix+"/admin/cleanup-cache", s.cleanupCache).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/admin/stats", s.stats).Methods(http.MethodGet)

	return cors(s.deps.CORSOrigins)(router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) analyzePost(w http.ResponseWriter, r *http.Request) {
	var req predictor.Request
	if !decode(w, r, &req) {
		return
	}

	result, err := s.deps.Predictor.Predict(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type contextRequest struct {
	PostURL     string `json:"post_url"`
	Language    string `json:"language,omitempty"`
	BypassCache bool   `json:"bypass_cache,omitempty"`
}

func (s *Server) postContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PostURL) == "" {
		writeMessage(w, http.StatusBadRequest, "post_url is required")
		return
	}
	lang, ok := s.language(w, req.Language)
	if !ok {
		return
	}

	report, err := s.deps.Predictor.LookupContext(r.Context(), req.PostURL, req.BypassCache, lang)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type applyTipsRequest struct {
	Content  string   `json:"content"`
	TipIDs   []string `json:"tip_ids"`
	Language string   `json:"language,omitempty"`
}

func (s *Server) applyTips(w http.ResponseWriter, r *http.Request) {
	var req applyTipsRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeMessage(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(req.TipIDs) == 0 {
		writeMessage(w, http.StatusBadRequest, "tip_ids is required")
		return
	}
	lang, ok := s.language(w, req.Language)
	if !ok {
		return
	}

	s.record(r.Context(), "", usage.KindApplyTips)
	writeJSON(w, http.StatusOK, rewrite.ApplyTips(req.Content, req.TipIDs, lang))
}

type rewriteRequest struct {
	Content   string `json:"content"`
	Style     string `json:"style"`
	Reference string `json:"reference,omitempty"`
}

func (s *Server) rewritePost(w http.ResponseWriter, r *http.Request) {
	var req rewriteRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeMessage(w, http.StatusBadRequest, "content is required")
		return
	}

	result, err := s.deps.Rewriter.Rewrite(r.Context(), req.Content, req.Style, req.Reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.record(r.Context(), "", usage.KindRewrite)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) analyzeProfile(w http.ResponseWriter, r *http.Request) {
	handle := profile.NormalizeHandle(mux.Vars(r)["username"])
	if handle == "" {
		writeMessage(w, http.StatusBadRequest, "username is required")
		return
	}
	bypass, _ := strconv.ParseBool(r.URL.Query().Get("bypass_cache"))

	analysis, err := s.deps.Profiles.Analyze(r.Context(), handle, bypass)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.record(r.Context(), handle, usage.KindProfile)
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) cleanupCache(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.deps.Cleaner.RunCleanup(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	total := 0
	for _, n := range deleted {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "completed",
		"deleted":       deleted,
		"total_deleted": total,
	})
}

type statsResponse struct {
	UptimeSeconds int64               `json:"uptime_seconds"`
	LocalEntries  int                 `json:"local_cache_entries"`
	Usage         *models.UsageReport `json:"usage,omitempty"`
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{UptimeSeconds: int64(time.Since(s.started).Seconds())}
	if s.deps.Local != nil {
		resp.LocalEntries = s.deps.Local.Len()
	}
	if s.deps.Usage != nil {
		resp.Usage = s.deps.Usage.Snapshot(time.Time{}, "all")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) language(w http.ResponseWriter, lang string) (string, bool) {
	if lang == "" {
		return s.deps.DefaultLanguage, true
	}
	if !tips.ValidLanguage(lang) {
		writeMessage(w, http.StatusBadRequest, "language must be one of "+strings.Join(tips.Languages, ", "))
		return "", false
	}
	return lang, true
}

func (s *Server) record(ctx context.Context, handle, kind string) {
	if s.deps.Usage != nil {
		s.deps.Usage.Record(ctx, handle, kind)
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, predictor.ErrInvalidRequest),
		errors.Is(err, rewrite.ErrInvalidStyle),
		errors.Is(err, sources.ErrInvalidPostURL):
		return http.StatusBadRequest
	case errors.Is(err, sources.ErrPostNotFound),
		errors.Is(err, profile.ErrProfileUnavailable):
		return http.StatusNotFound
	case errors.Is(err, predictor.ErrTargetUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := logrus.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"status":     status,
		"request_id": w.Header().Get(requestIDHeader),
	})
	if status >= http.StatusInternalServerError {
		entry.Errorf("Request failed: %v", err)
	} else {
		entry.Debugf("Request rejected: %v", err)
	}
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Debugf("Failed to write response: %v", err)
	}
}
