package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://WISO.Example.EDU/Studium", "https://wiso.example.edu/Studium"},
		{"strips default https port", "https://wiso.example.edu:443/studium", "https://wiso.example.edu/studium"},
		{"strips default http port", "http://wiso.example.edu:80/", "http://wiso.example.edu/"},
		{"keeps explicit port", "https://wiso.example.edu:8443/studium", "https://wiso.example.edu:8443/studium"},
		{"drops fragment", "https://wiso.example.edu/studium#bachelor", "https://wiso.example.edu/studium"},
		{"drops trailing slash", "https://wiso.example.edu/studium/", "https://wiso.example.edu/studium"},
		{"keeps root slash", "https://wiso.example.edu/", "https://wiso.example.edu/"},
		{"trims whitespace", "  https://wiso.example.edu/a  ", "https://wiso.example.edu/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestNormalizeURL_EquivalentFormsCollide(t *testing.T) {
	a := NormalizeURL("https://wiso.example.edu/studium/")
	b := NormalizeURL("HTTPS://wiso.example.edu:443/studium#top")
	assert.Equal(t, a, b, "equivalent URL spellings must share one cache key")
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "wiso.example.edu", Domain("https://wiso.example.edu/studium"))
	assert.Equal(t, "", Domain("://bad"))
}
