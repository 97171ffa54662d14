package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, s.AuthToken())
	assert.Empty(t, s.CSRFToken())
	assert.Equal(t, DefaultLang, s.Lang())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")
	s, err := Load(path)
	require.NoError(t, err)

	s.SetAuthToken("  abc123 ")
	s.SetCSRFToken("csrf-xyz")
	s.SetLang("FR")
	require.NoError(t, s.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", reloaded.AuthToken())
	assert.Equal(t, "csrf-xyz", reloaded.CSRFToken())
	assert.Equal(t, "fr", reloaded.Lang())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth_token: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestOverridesTakePrecedence(t *testing.T) {
	s := &Store{}
	s.SetAuthToken("stored")
	s.WithOverrides("from-env", "")

	assert.Equal(t, "from-env", s.AuthToken())
	assert.Empty(t, s.CSRFToken())

	s.ClearAuthToken()
	assert.Empty(t, s.AuthToken(), "clearing drops the override too")
}

func TestSaveWithoutPath(t *testing.T) {
	var s Store
	require.Error(t, s.Save())
}

func TestCookieValue(t *testing.T) {
	tests := []struct {
		name   string
		header string
		key    string
		want   string
	}{
		{"single", "csrftoken=abc", "csrftoken", "abc"},
		{"among others", "sessionid=1; csrftoken=abc; theme=dark", "csrftoken", "abc"},
		{"url encoded", "csrftoken=a%2Bb%3D", "csrftoken", "a+b="},
		{"prefix is not a match", "xcsrftoken=nope", "csrftoken", ""},
		{"missing", "sessionid=1", "csrftoken", ""},
		{"empty header", "", "csrftoken", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CookieValue(tt.header, tt.key))
		})
	}
}
