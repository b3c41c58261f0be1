// Package session keeps flash messages and previously submitted form data in a
// signed cookie between a redirect and the page it leads to.
package session

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	cookieName = "sm_session"

	flashError    = "error"
	flashInfo     = "info"
	flashPrevious = "previous"
)

func init() {
	gob.Register(map[string]string{})
}

// Store wraps a gorilla cookie store
type Store struct {
	store *sessions.CookieStore
}

// NewStore creates a cookie store signed with secret
func NewStore(secret string, maxAge int, secure bool) *Store {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(maxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return &Store{store: store}
}

// Flashes holds what a page should show once
type Flashes struct {
	Errors   []string
	Infos    []string
	Previous map[string]string
}

// AddError queues error messages for the next rendered page
func (s *Store) AddError(c echo.Context, messages ...string) error {
	return s.add(c, flashError, messages)
}

// AddInfo queues informational messages for the next rendered page
func (s *Store) AddInfo(c echo.Context, messages ...string) error {
	return s.add(c, flashInfo, messages)
}

// SetPrevious keeps submitted form values so the form can be refilled
func (s *Store) SetPrevious(c echo.Context, data map[string]string) error {
	sess, err := s.get(c)
	if err != nil {
		return err
	}
	sess.AddFlash(data, flashPrevious)
	return sess.Save(c.Request(), c.Response())
}

// Pop returns and clears every queued flash
func (s *Store) Pop(c echo.Context) (Flashes, error) {
	out := Flashes{Previous: map[string]string{}}

	sess, err := s.get(c)
	if err != nil {
		return out, err
	}

	errs := sess.Flashes(flashError)
	infos := sess.Flashes(flashInfo)
	previous := sess.Flashes(flashPrevious)
	if len(errs)+len(infos)+len(previous) == 0 {
		return out, nil
	}

	out.Errors = toStrings(errs)
	out.Infos = toStrings(infos)
	for _, p := range previous {
		if m, ok := p.(map[string]string); ok {
			for k, v := range m {
				out.Previous[k] = v
			}
		}
	}
	return out, sess.Save(c.Request(), c.Response())
}

// Clear drops the session cookie
func (s *Store) Clear(c echo.Context) error {
	sess, err := s.get(c)
	if err != nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

func (s *Store) add(c echo.Context, key string, messages []string) error {
	sess, err := s.get(c)
	if err != nil {
		return err
	}
	for _, m := range messages {
		sess.AddFlash(m, key)
	}
	return sess.Save(c.Request(), c.Response())
}

// get never fails on a tampered or stale cookie; it starts a fresh session instead
func (s *Store) get(c echo.Context) (*sessions.Session, error) {
	sess, err := s.store.Get(c.Request(), cookieName)
	if err != nil && sess == nil {
		return nil, err
	}
	return sess, nil
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
