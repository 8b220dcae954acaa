package urlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostname(t *testing.T) {
	cases := []struct {
		rawURL string
		want   string
	}{
		{"https://github.com/org/repo", "github.com"},
		{"https://www.example.com/path", "example.com"},
		{"http://localhost:8080/app", "localhost"},
		{"https://sub.domain.example.com", "sub.domain.example.com"},
		{"not a url", UnknownHost},
		{"", UnknownHost},
		{"://missing-scheme", UnknownHost},
		{"/relative/path", UnknownHost},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Hostname(tc.rawURL), "url %q", tc.rawURL)
	}
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, []string{"org", "repo", "issues"},
		PathSegments("https://github.com/org/repo/issues"))
	assert.Equal(t, []string{"org", "repo"},
		PathSegments("https://github.com/org/repo/"))
	assert.Empty(t, PathSegments("https://github.com"))
	assert.Empty(t, PathSegments("%%%"))
}
