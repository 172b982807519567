// Package locale tracks the display language shared by every view.
package locale

import (
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/khrees2412/careerflow/internal/apperr"
)

const (
	English    = "en"
	Vietnamese = "vi"
)

// Supported lists the languages analysis content is produced in.
var Supported = []string{English, Vietnamese}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Vietnamese})

// State is the current display language. The zero value is not usable; use
// New.
type State struct {
	mu        sync.RWMutex
	lang      string
	listeners map[int]func(string)
	nextSub   int
}

// New returns a State set to English.
func New() *State {
	return &State{lang: English, listeners: make(map[int]func(string))}
}

// Current returns the active language code.
func (s *State) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// Set parses a BCP 47 tag such as "vi", "vi-VN" or "en-GB" and switches to
// the closest supported language. Unsupported but valid tags fall back to
// English.
func (s *State) Set(tag string) (string, error) {
	lang, err := Match(tag)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	changed := s.lang != lang
	s.lang = lang
	listeners := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(lang)
		}
	}
	return lang, nil
}

// Subscribe registers fn to be called after the language changes.
func (s *State) Subscribe(fn func(string)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Match resolves tag to a supported language code.
func Match(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", apperr.Invalid("language", "a language is required")
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", apperr.Invalid("language", "%q is not a valid language tag", tag)
	}
	_, idx, _ := matcher.Match(parsed)
	return Supported[idx], nil
}
