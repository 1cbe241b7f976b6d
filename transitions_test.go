package reviewflow

import (
	"errors"
	"testing"
)

func TestMatchTransition(t *testing.T) {
	available := []Transition{
		{ID: "1", Name: "Backlog"},
		{ID: "2", Name: "Start Progress"},
		{ID: "3", Name: "In Review"},
		{ID: "4", Name: "Resolved"},
	}

	tests := []struct {
		name     string
		synonyms []string
		wantID   string
		wantErr  bool
	}{
		{"first transition wins over synonym order", inProgressTransitions, "2", false},
		{"case-insensitive substring", []string{"REVIEW"}, "3", false},
		{"done synonyms", doneTransitions, "4", false},
		{"no match", []string{"closed"}, "", true},
		{"empty synonym ignored", []string{""}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchTransition(available, tt.synonyms)
			if tt.wantErr {
				if !errors.Is(err, ErrNoMatchingTransition) {
					t.Fatalf("got %v, want ErrNoMatchingTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MatchTransition: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}
