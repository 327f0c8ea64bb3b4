package api

import (
	"net/http"
	"strings"

	"github.com/okian/deck/pkg/logger"
)

// Default routes.
const (
	DefaultGatePath       = "/gate"
	DefaultVerifyPath     = "/api/auth"
	DefaultLogoutPath     = "/api/logout"
	DefaultEngagementPath = "/api/engagement"
	DefaultCookieName     = "deck_auth"
)

// CookieOptions shape the session marker cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Options configure the API server and the gate.
type Options struct {
	GatePath       string
	VerifyPath     string
	LogoutPath     string
	EngagementPath string
	// PublicPaths pass the gate untouched. Entries ending in "/" match as
	// prefixes, anything else must match exactly.
	PublicPaths []string

	cookie CookieOptions
	logger logger.Logger
}

// Option applies a configuration option to the server.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		GatePath:       DefaultGatePath,
		VerifyPath:     DefaultVerifyPath,
		LogoutPath:     DefaultLogoutPath,
		EngagementPath: DefaultEngagementPath,
		PublicPaths:    []string{"/healthz", "/static/"},
		cookie:         CookieOptions{Name: DefaultCookieName},
	}
}

// WithGatePath sets the gate page path.
func WithGatePath(p string) Option {
	return func(o *Options) {
		if strings.HasPrefix(p, "/") {
			o.GatePath = p
		}
	}
}

// WithVerifyPath sets the verification endpoint path.
func WithVerifyPath(p string) Option {
	return func(o *Options) {
		if strings.HasPrefix(p, "/") {
			o.VerifyPath = p
		}
	}
}

// WithPublicPaths replaces the always-reachable paths.
func WithPublicPaths(paths []string) Option {
	return func(o *Options) {
		if paths != nil {
			o.PublicPaths = paths
		}
	}
}

// WithCookie sets the session cookie name and Secure attribute.
func WithCookie(name string, secure bool) Option {
	return func(o *Options) {
		if name != "" {
			o.cookie.Name = name
		}
		o.cookie.Secure = secure
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.logger = l
		}
	}
}

// CookieName returns the configured session cookie name.
func (o Options) CookieName() string { return o.cookie.Name }

func (o Options) public(path string) bool {
	for _, p := range o.PublicPaths {
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func (c CookieOptions) marker(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieOptions) cleared() *http.Cookie {
	ck := c.marker("")
	ck.MaxAge = -1
	return ck
}
