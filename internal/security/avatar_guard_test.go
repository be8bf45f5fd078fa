package security

import "testing"

func TestValidateURL_AllowsPublicHTTPS(t *testing.T) {
	g := NewAvatarURLGuard()

	urls := []string{
		"https://images.unsplash.com/photo-1507003211169?w=100&h=100",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=alex",
		"https://cdn.example.com/avatars/u1.png",
	}

	for _, u := range urls {
		if err := g.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateURL_RejectsBadSchemes(t *testing.T) {
	g := NewAvatarURLGuard()

	tests := []struct {
		name string
		url  string
	}{
		{"http", "http://images.example.com/a.png"},
		{"javascript", "javascript:alert(1)"},
		{"data", "data:image/png;base64,iVBORw0KGgo="},
		{"file", "file:///etc/passwd"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.ValidateURL(tt.url); err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tt.url)
			}
		})
	}
}

func TestValidateURL_RejectsPrivateIPLiterals(t *testing.T) {
	g := NewAvatarURLGuard()

	tests := []struct {
		name string
		url  string
	}{
		{"loopback", "https://127.0.0.1/a.png"},
		{"rfc1918 10", "https://10.0.0.5/a.png"},
		{"rfc1918 192.168", "https://192.168.1.1/a.png"},
		{"link local metadata", "https://169.254.169.254/latest/meta-data"},
		{"ipv6 loopback", "https://[::1]/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.ValidateURL(tt.url); err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tt.url)
			}
		})
	}
}

func TestValidateURL_MissingHost(t *testing.T) {
	g := NewAvatarURLGuard()

	if err := g.ValidateURL("https:///path-only"); err == nil {
		t.Error("ValidateURL with empty host = nil, want error")
	}
}
