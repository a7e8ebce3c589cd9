// Package webapi provides a web API for the spam scoring service.
package webapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/realip"
	"github.com/go-pkgz/routegroup"
	"golang.org/x/crypto/bcrypt"

	"github.com/umputun/form-spam/app/config"
	"github.com/umputun/form-spam/app/filter"
	"github.com/umputun/form-spam/app/storage"
	"github.com/umputun/form-spam/lib/formspam"
	"github.com/umputun/form-spam/lib/spamcheck"
)

//go:generate moq --out mocks/filter.go --pkg mocks --with-resets --skip-ensure . Filter
//go:generate moq --out mocks/submissions_store.go --pkg mocks --with-resets --skip-ensure . SubmissionsStore
//go:generate moq --out mocks/settings_store.go --pkg mocks --with-resets --skip-ensure . SettingsStore

// Server is a web API server.
type Server struct {
	Config
	settingsLock sync.RWMutex
}

// Config defines server parameters
type Config struct {
	Version       string           // version to show in /ping
	ListenAddr    string           // listen address
	Filter        Filter           // submissions filter
	Submissions   SubmissionsStore // optional, submission endpoints return 503 without it
	SettingsStore SettingsStore    // optional, settings changes are not persisted without it
	Settings      *config.Settings // current settings, updated by PUT /settings
	AuthUser      string           // basic auth user, "form-spam" if empty
	AuthPasswd    string           // basic auth password
	AuthHash      string           // bcrypt hash of the basic auth password, used if AuthPasswd is empty
	MaxBodyKB     int              // max request body size, 1M if zero
	RateLimit     int              // requests per second per client, 0 disables
	Dbg           bool             // debug mode
}

// Filter scores submissions, implemented by filter.Filter
type Filter interface {
	Handle(ctx context.Context, req spamcheck.Request, persist bool) spamcheck.Verdict
	HandleComment(ctx context.Context, c filter.CommentEntry, persist bool) spamcheck.Verdict
	UpdateSettings(s formspam.Settings)
}

// SubmissionsStore is a storage of scored submissions
type SubmissionsStore interface {
	Get(ctx context.Context, id string) (storage.Submission, error)
	List(ctx context.Context, req storage.ListRequest) ([]storage.Submission, int, error)
	SetSpam(ctx context.Context, id string, spam bool) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, days int) (storage.Stats, error)
}

// SettingsStore persists settings
type SettingsStore interface {
	Save(ctx context.Context, settings *config.Settings) error
}

const defaultListLimit = 50

// NewServer creates a new web API server.
func NewServer(cfg Config) *Server {
	if cfg.AuthUser == "" {
		cfg.AuthUser = "form-spam"
	}
	if cfg.MaxBodyKB <= 0 {
		cfg.MaxBodyKB = 1024
	}
	if cfg.Settings == nil {
		cfg.Settings = config.New()
	}
	return &Server{Config: cfg}
}

// Run starts server and accepts requests scoring submissions
func (s *Server) Run(ctx context.Context) error {
	if s.AuthPasswd != "" || s.AuthHash != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	srv := &http.Server{Addr: s.ListenAddr, Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout: 10 * time.Second, WriteTimeout: 90 * time.Second} // remote model call can take a while
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.AppInfo("form-spam", "umputun", s.Version), rest.Ping)
	if s.RateLimit > 0 {
		router.Use(s.rateLimiter())
	}
	router.Use(rest.SizeLimit(int64(s.MaxBodyKB) * 1024))

	api := router.Group()
	api.Use(s.authMiddleware())
	api.HandleFunc("POST /check", s.checkHandler)                // score a submission
	api.HandleFunc("POST /check/comment", s.checkCommentHandler) // score a blog comment

	api.HandleFunc("GET /submissions", s.listSubmissionsHandler)
	api.HandleFunc("GET /submissions/{id}", s.getSubmissionHandler)
	api.HandleFunc("PUT /submissions/{id}/spam", s.markSubmissionHandler(true))
	api.HandleFunc("PUT /submissions/{id}/ham", s.markSubmissionHandler(false))
	api.HandleFunc("DELETE /submissions/{id}", s.deleteSubmissionHandler)
	api.HandleFunc("GET /stats", s.statsHandler)

	api.HandleFunc("GET /settings", s.getSettingsHandler)
	api.HandleFunc("PUT /settings", s.updateSettingsHandler)
	return router
}

// checkHandler handles POST /check, body is a json object with submitted fields.
// Meta-info comes from query (type, form_id) and request headers, persist=false skips storing.
func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	sub := spamcheck.Submission{}
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.sendError(w, http.StatusBadRequest, err, "can't decode submission")
		return
	}

	req := spamcheck.Request{
		ID:         r.URL.Query().Get("id"),
		Submission: sub,
		Caller:     callerIP(r),
		Meta: spamcheck.MetaData{
			Type:      r.URL.Query().Get("type"),
			FormID:    r.URL.Query().Get("form_id"),
			UserAgent: r.UserAgent(),
		},
	}
	if req.Meta.Type != "" && req.Meta.Type != storage.TypeForm && req.Meta.Type != storage.TypeComment {
		s.sendError(w, http.StatusBadRequest, fmt.Errorf("unknown type %q", req.Meta.Type), "invalid submission type")
		return
	}

	res := s.Filter.Handle(r.Context(), req, persistParam(r))
	rest.RenderJSON(w, res)
}

// checkCommentHandler handles POST /check/comment, body is a CommentEntry
func (s *Server) checkCommentHandler(w http.ResponseWriter, r *http.Request) {
	entry := filter.CommentEntry{}
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.sendError(w, http.StatusBadRequest, err, "can't decode comment")
		return
	}
	if entry.IP == "" {
		entry.IP = callerIP(r)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = r.UserAgent()
	}
	res := s.Filter.HandleComment(r.Context(), entry, persistParam(r))
	rest.RenderJSON(w, res)
}

// listSubmissionsHandler handles GET /submissions?spam=&type=&limit=&offset=
func (s *Server) listSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.hasStorage(w) {
		return
	}
	q := r.URL.Query()
	req := storage.ListRequest{Type: q.Get("type"), Limit: defaultListLimit}
	if v := q.Get("spam"); v != "" {
		spam, err := strconv.ParseBool(v)
		if err != nil {
			s.sendError(w, http.StatusBadRequest, err, "invalid spam parameter")
			return
		}
		req.Spam = &spam
	}
	for name, dst := range map[string]*int{"limit": &req.Limit, "offset": &req.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.sendError(w, http.StatusBadRequest, fmt.Errorf("bad %s value %q", name, v), "invalid "+name+" parameter")
			return
		}
		*dst = n
	}

	list, total, err := s.Submissions.List(r.Context(), req)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, err, "can't list submissions")
		return
	}
	rest.RenderJSON(w, rest.JSON{"submissions": list, "total": total, "limit": req.Limit, "offset": req.Offset})
}

// getSubmissionHandler handles GET /submissions/{id}
func (s *Server) getSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	if !s.hasStorage(w) {
		return
	}
	sub, err := s.Submissions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sendStorageError(w, err, "can't get submission")
		return
	}
	rest.RenderJSON(w, sub)
}

// markSubmissionHandler handles PUT /submissions/{id}/spam and PUT /submissions/{id}/ham
func (s *Server) markSubmissionHandler(spam bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.hasStorage(w) {
			return
		}
		id := r.PathValue("id")
		if err := s.Submissions.SetSpam(r.Context(), id, spam); err != nil {
			s.sendStorageError(w, err, "can't update submission")
			return
		}
		log.Printf("[INFO] submission %s marked as spam:%v", id, spam)
		rest.RenderJSON(w, rest.JSON{"id": id, "spam": spam, "updated": true})
	}
}

// deleteSubmissionHandler handles DELETE /submissions/{id}
func (s *Server) deleteSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	if !s.hasStorage(w) {
		return
	}
	id := r.PathValue("id")
	if err := s.Submissions.Delete(r.Context(), id); err != nil {
		s.sendStorageError(w, err, "can't delete submission")
		return
	}
	log.Printf("[INFO] submission %s deleted", id)
	rest.RenderJSON(w, rest.JSON{"id": id, "deleted": true})
}

// statsHandler handles GET /stats?days=, days out of 1..365 means all-time
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.hasStorage(w) {
		return
	}
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.sendError(w, http.StatusBadRequest, err, "invalid days parameter")
			return
		}
		days = n
	}
	st, err := s.Submissions.Stats(r.Context(), days)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, err, "can't get stats")
		return
	}
	rest.RenderJSON(w, st)
}

// getSettingsHandler handles GET /settings, secrets are masked
func (s *Server) getSettingsHandler(w http.ResponseWriter, _ *http.Request) {
	s.settingsLock.RLock()
	defer s.settingsLock.RUnlock()
	rest.RenderJSON(w, s.Settings.Masked())
}

// updateSettingsHandler handles PUT /settings. Body is decoded over current settings,
// masked secrets are kept as is. Detection settings are applied to the next submissions.
func (s *Server) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	s.settingsLock.Lock()
	defer s.settingsLock.Unlock()

	upd := *s.Settings
	upd.LuaPlugins.EnabledPlugins = append([]string(nil), s.Settings.LuaPlugins.EnabledPlugins...)
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.sendError(w, http.StatusBadRequest, err, "can't decode settings")
		return
	}
	keepMasked := func(v *string, orig string) {
		if *v == "****" {
			*v = orig
		}
	}
	keepMasked(&upd.Detection.OpenAIAPIKey, s.Settings.Detection.OpenAIAPIKey)
	keepMasked(&upd.Server.AuthHash, s.Settings.Server.AuthHash)
	keepMasked(&upd.Remote.RedisURL, s.Settings.Remote.RedisURL)
	upd.Transient = s.Settings.Transient

	if err := upd.Validate(); err != nil {
		s.sendError(w, http.StatusBadRequest, err, "invalid settings")
		return
	}
	if s.SettingsStore != nil {
		if err := s.SettingsStore.Save(r.Context(), &upd); err != nil {
			s.sendError(w, http.StatusInternalServerError, err, "can't save settings")
			return
		}
	}
	*s.Settings = upd
	s.Filter.UpdateSettings(upd.Detection)
	log.Printf("[INFO] settings updated, persisted:%v", s.SettingsStore != nil)
	rest.RenderJSON(w, s.Settings.Masked())
}

func (s *Server) hasStorage(w http.ResponseWriter) bool {
	if s.Submissions == nil {
		s.sendError(w, http.StatusServiceUnavailable, errors.New("storage disabled"), "submissions storage is not available")
		return false
	}
	return true
}

func (s *Server) sendStorageError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, storage.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, err, msg)
		return
	}
	s.sendError(w, http.StatusInternalServerError, err, msg)
}

func (s *Server) sendError(w http.ResponseWriter, code int, err error, msg string) {
	log.Printf("[WARN] %s: %v", msg, err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	rest.RenderJSON(w, rest.JSON{"error": msg, "details": err.Error()})
}

// authMiddleware checks basic auth with the plain password or bcrypt hash, no-op if neither is set
func (s *Server) authMiddleware() func(next http.Handler) http.Handler {
	switch {
	case s.AuthPasswd != "":
		return rest.BasicAuthWithUserPasswd(s.AuthUser, s.AuthPasswd)
	case s.AuthHash != "":
		return rest.BasicAuth(func(user, passwd string) bool {
			return user == s.AuthUser && bcrypt.CompareHashAndPassword([]byte(s.AuthHash), []byte(passwd)) == nil
		})
	default:
		return func(next http.Handler) http.Handler { return next }
	}
}

// rateLimiter limits requests per client ip
func (s *Server) rateLimiter() func(next http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(float64(s.RateLimit), nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr", IndexFromRight: 0})
	lmt.SetMessageContentType("application/json; charset=utf-8")
	lmt.SetMessage(`{"error":"rate limit exceeded"}`)
	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}

// callerIP returns the real client ip, used as a caller identity for remote rate limiting
func callerIP(r *http.Request) string {
	if ip, err := realip.Get(r); err == nil && ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func persistParam(r *http.Request) bool {
	v := r.URL.Query().Get("persist")
	if v == "" {
		return true
	}
	persist, err := strconv.ParseBool(v)
	return err != nil || persist
}

// GenerateRandomPassword generates a random password of a given length
func GenerateRandomPassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+"
	const charsetLen = int64(len(charset))

	result := make([]byte, length)
	for i := range length {
		n, err := rand.Int(rand.Reader, big.NewInt(charsetLen))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
