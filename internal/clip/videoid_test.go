package clip

import "testing"

func TestVideoIDFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"v not first param", "https://www.youtube.com/watch?list=PL1&v=abc123", "abc123", true},
		{"trailing params dropped", "https://www.youtube.com/watch?v=abc123&t=42s", "abc123", true},
		{"no v param", "https://www.youtube.com/feed/subscriptions", "", false},
		{"v in path not matched", "https://example.com/v=abc", "", false},
		{"empty url", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := VideoIDFromURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}
