package locale

import (
	"testing"

	"github.com/khrees2412/careerflow/internal/apperr"
)

func TestDefaultIsEnglish(t *testing.T) {
	if got := New().Current(); got != English {
		t.Errorf("Current() = %q, expected en", got)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"vi", Vietnamese, false},
		{"vi-VN", Vietnamese, false},
		{"en-GB", English, false},
		{"EN", English, false},
		{"fr", English, false},
		{"", "", true},
		{"not a tag!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Match(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Match(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("Match(%q) error kind = %s", tt.input, apperr.KindOf(err))
			}
			if got != tt.expected {
				t.Errorf("Match(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSetNotifiesOnChange(t *testing.T) {
	s := New()
	var changes []string
	s.Subscribe(func(lang string) { changes = append(changes, lang) })

	if _, err := s.Set("vi-VN"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Set("vi"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Set("xx-invalid-!"); err == nil {
		t.Error("expected invalid tag to be rejected")
	}

	if s.Current() != Vietnamese {
		t.Errorf("Current() = %q, expected vi", s.Current())
	}
	if len(changes) != 1 || changes[0] != Vietnamese {
		t.Errorf("changes = %v, expected one change to vi", changes)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New()
	var first, second []string
	stop := s.Subscribe(func(lang string) { first = append(first, lang) })
	s.Subscribe(func(lang string) { second = append(second, lang) })

	if _, err := s.Set("vi"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	stop()
	stop()
	if _, err := s.Set("en"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if len(first) != 1 || first[0] != Vietnamese {
		t.Errorf("unsubscribed listener saw %v, expected only vi", first)
	}
	if len(second) != 2 || second[1] != English {
		t.Errorf("remaining listener saw %v, expected vi then en", second)
	}
}
