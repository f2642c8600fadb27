// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package identity

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/devotrack/internal/logging"
)

// Profile is optional metadata attached to a signed-in session.
type Profile struct {
	City string
}

// Session is the Provider and Watcher driven by the auth layer.
// It is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	userID    string
	token     string
	profile   Profile
	hints     HintStore
	listeners map[uint64]func()
	nextID    uint64
	logger    zerolog.Logger
}

// NewSession creates a signed-out session. hints may be nil.
func NewSession(hints HintStore) *Session {
	return &Session{
		hints:     hints,
		listeners: make(map[uint64]func()),
		logger:    logging.WithComponent("identity"),
	}
}

// SignIn sets the active user. A non-empty profile city is persisted as the
// city hint. Subscribers are notified when the user id changes.
func (s *Session) SignIn(userID string, profile Profile) {
	s.signIn(strings.TrimSpace(userID), "", profile)
}

// SignInWithToken signs in the subject of an access token and keeps the
// token for authenticated backend calls.
func (s *Session) SignInWithToken(token string, profile Profile) error {
	claims, err := ParseAccessToken(token, time.Now())
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s.signIn(strings.TrimSpace(claims.UserID()), bareToken(token), profile)
	return nil
}

func (s *Session) signIn(userID, token string, profile Profile) {
	s.mu.Lock()
	changed := s.userID != userID
	s.userID = userID
	s.token = token
	s.profile = profile
	s.mu.Unlock()

	if city := strings.TrimSpace(profile.City); city != "" && s.hints != nil {
		if err := s.hints.Set(KeyCityHint, city); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to persist city hint")
		}
	}

	if changed {
		s.notify()
	}
}

// SignOut clears the active user. The persisted city hint is kept.
func (s *Session) SignOut() {
	s.mu.Lock()
	changed := s.userID != ""
	s.userID = ""
	s.token = ""
	s.profile = Profile{}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// CurrentUserID returns the signed-in user id, or "".
func (s *Session) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// AccessToken returns the token of a token sign-in, or "".
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CityHint returns the session profile city, falling back to the persisted hint.
func (s *Session) CityHint() string {
	s.mu.RLock()
	city := s.profile.City
	s.mu.RUnlock()

	if city != "" || s.hints == nil {
		return city
	}

	hint, err := s.hints.Get(KeyCityHint)
	if err != nil {
		if !errors.Is(err, ErrHintNotFound) {
			s.logger.Debug().Err(err).Msg("City hint unavailable")
		}
		return ""
	}
	return hint
}

// Subscribe registers fn to run after every user change.
func (s *Session) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		s.safeCall(fn)
	}
}

func (s *Session) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Interface("panic", r).Msg("Identity listener panicked")
		}
	}()
	fn()
}
