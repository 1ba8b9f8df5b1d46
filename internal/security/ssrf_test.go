package security

import (
	"net"
	"net/url"
	"testing"
)

func TestGuard_ValidateURL(t *testing.T) {
	g := NewGuard()
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid https", "https://example.org/article/1", false},
		{"valid http", "http://example.org/feed.xml", false},
		{"ftp scheme rejected", "ftp://example.org/file", true},
		{"metadata endpoint rejected", "http://169.254.169.254/latest/meta-data/", true},
		{"metadata dns name rejected", "http://metadata.google.internal/", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			if err != nil {
				t.Fatalf("url.Parse(%q) failed: %v", tt.raw, err)
			}
			err = g.ValidateURL(u)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestGuard_IsPrivateOrDangerous(t *testing.T) {
	g := NewGuard()
	cases := map[string]bool{
		"127.0.0.1":   true,
		"10.0.0.5":    true,
		"172.16.0.1":  true,
		"192.168.1.1": true,
		"8.8.8.8":     false,
		"93.184.216.34": false,
	}
	for ipStr, want := range cases {
		got := g.isPrivateOrDangerous(mustParseIP(t, ipStr))
		if got != want {
			t.Errorf("isPrivateOrDangerous(%s) = %v, want %v", ipStr, got, want)
		}
	}
}

func mustParseIP(t *testing.T, s string) (ip net.IP) {
	t.Helper()
	ip = net.ParseIP(s)
	if ip == nil {
		t.Fatalf("invalid test IP %q", s)
	}
	return ip
}
