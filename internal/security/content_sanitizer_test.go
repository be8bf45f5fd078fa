package security

import (
	"strings"
	"testing"
)

func TestSanitizeMessage_StripsAllTags(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Hey! How are you doing?", "Hey! How are you doing?"},
		{"script tag", `Hello <script>alert("xss")</script>world`, "Hello world"},
		{"bold stripped", "see <strong>this</strong>", "see this"},
		{"img stripped", `<img src="https://evil.example/x.png">hi`, "hi"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeMessage(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeMessage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeMessage_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `coffee? <a href="https://example.com">here</a> ☕`
	once := s.SanitizeMessage(input)
	twice := s.SanitizeMessage(once)

	if once != twice {
		t.Errorf("sanitize is not idempotent: %q != %q", once, twice)
	}
}

func TestSanitizeBio_AllowsInlineMarkup(t *testing.T) {
	s := NewContentSanitizer()

	got := s.SanitizeBio("I <strong>love</strong> exploring<br>the city")
	if !strings.Contains(got, "<strong>love</strong>") {
		t.Errorf("SanitizeBio should keep <strong>, got %q", got)
	}
	if !strings.Contains(got, "<br") {
		t.Errorf("SanitizeBio should keep <br>, got %q", got)
	}
}

func TestSanitizeBio_RemovesDangerousTags(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name     string
		input    string
		mustLose string
	}{
		{"script", `bio<script>steal()</script>`, "<script"},
		{"iframe", `bio<iframe src="https://evil.example"></iframe>`, "<iframe"},
		{"onerror attr", `<img src="x" onerror="alert(1)">bio`, "onerror"},
		{"link", `<a href="https://spam.example">follow me</a>`, "<a "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeBio(tt.input)
			if strings.Contains(got, tt.mustLose) {
				t.Errorf("SanitizeBio(%q) = %q, must not contain %q", tt.input, got, tt.mustLose)
			}
		})
	}
}
