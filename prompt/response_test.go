package prompt

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1}  `, `{"a":1}`},
		{"json fence", "Here:\n```json\n{\"a\":1}\n```\nthanks", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", "```json\n{\"a\":1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutermostObject(t *testing.T) {
	got, ok := OutermostObject("Sure! {\"score\": 80, \"nested\": {\"x\": 1}} hope this helps")
	if !ok || got != `{"score": 80, "nested": {"x": 1}}` {
		t.Errorf("OutermostObject = %q, %v", got, ok)
	}

	if _, ok := OutermostObject("no json here"); ok {
		t.Error("expected no match")
	}
}
