// Package site serves the server-rendered deck and gate pages.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/yuin/goldmark"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/presenter"
	"github.com/okian/deck/pkg/logger"
	"github.com/okian/deck/pkg/metrics"
)

// Error constants
var (
	ErrRender = errors.New("page render failed")
)

// Default paths, matching the API defaults.
const (
	DefaultGatePath   = "/gate"
	DefaultVerifyPath = "/api/auth"
	DefaultLogoutPath = "/api/logout"
	staticPrefix      = "/static/"
)

// Site renders the deck and gate pages for one engagement.
type Site struct {
	engagement *engagement.Engagement
	slides     []slidePage
	pages      *template.Template

	gatePath   string
	verifyPath string
	logoutPath string
	gated      bool
	log        logger.Logger
}

// Option configures a Site.
type Option func(*Site)

// WithPaths sets the gate page and verification endpoint paths.
func WithPaths(gatePath, verifyPath string) Option {
	return func(s *Site) {
		if gatePath != "" {
			s.gatePath = gatePath
		}
		if verifyPath != "" {
			s.verifyPath = verifyPath
		}
	}
}

// WithGated shows the lock control when a secret is configured.
func WithGated(on bool) Option {
	return func(s *Site) { s.gated = on }
}

// WithLogger sets the logger used for render failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Site) {
		if l != nil {
			s.log = l
		}
	}
}

// New prepares the pages of e. Views and narrative HTML are built once.
func New(e *engagement.Engagement, opts ...Option) (*Site, error) {
	s := &Site{
		engagement: e,
		gatePath:   DefaultGatePath,
		verifyPath: DefaultVerifyPath,
		logoutPath: DefaultLogoutPath,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	pages, err := template.New("site").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: parse templates: %w", ErrRender, err)
	}
	s.pages = pages

	md := goldmark.New()
	for _, v := range presenter.Build(e) {
		sp := slidePage{SlideView: v}
		if v.Kind == engagement.KindNarrative {
			var buf bytes.Buffer
			if err := md.Convert([]byte(v.Narrative), &buf); err != nil {
				return nil, fmt.Errorf("%w: narrative %s: %w", ErrRender, v.ID, err)
			}
			// goldmark escapes raw HTML unless WithUnsafe is set.
			sp.NarrativeHTML = template.HTML(buf.String()) //nolint:gosec // sanitized by goldmark
		}
		s.slides = append(s.slides, sp)
	}
	return s, nil
}

// Register attaches the page routes to mux.
func (s *Site) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle(staticPrefix, http.StripPrefix(staticPrefix, http.FileServer(FS())))
	mux.HandleFunc(s.gatePath, s.HandleGate)
	mux.HandleFunc("/", s.HandleDeck)
}

type slidePage struct {
	presenter.SlideView
	NarrativeHTML template.HTML
}

type deckPage struct {
	Client     string
	Title      string
	Date       string
	Slides     []slidePage
	Start      int
	Total      int
	Gated      bool
	LogoutPath string
	GatePath   string
}

type gatePage struct {
	Client     string
	VerifyPath string
}

// HandleDeck handles GET / requests. ?slide=N opens slide N (1-based),
// clamped to the deck.
func (s *Site) HandleDeck(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	start := StartSlide(r.URL.Query().Get("slide"), len(s.slides))
	if start < len(s.slides) {
		metrics.RecordSlideView(s.slides[start].ID)
	}
	s.render(w, r, "deck.html", deckPage{
		Client:     s.engagement.Client,
		Title:      s.engagement.Title,
		Date:       s.engagement.Date,
		Slides:     s.slides,
		Start:      start,
		Total:      len(s.slides),
		Gated:      s.gated,
		LogoutPath: s.logoutPath,
		GatePath:   s.gatePath,
	})
}

// HandleGate handles GET /gate requests.
func (s *Site) HandleGate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, "gate.html", gatePage{Client: s.engagement.Client, VerifyPath: s.verifyPath})
}

// StartSlide parses a 1-based slide query into a clamped 0-based index.
// Garbage yields the first slide.
func StartSlide(q string, total int) int {
	n, err := strconv.Atoi(q)
	if err != nil || total < 1 {
		return 0
	}
	return min(max(n-1, 0), total-1)
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		metrics.RecordErrorByComponent("site", "render")
		s.log.Error(r.Context(), "render page", logger.String("page", name), logger.Error(fmt.Errorf("%w: %w", ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
