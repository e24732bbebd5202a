package git

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRemoteURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"git@github.com:marcus999/http-echo.git", "https://github.com/marcus999/http-echo"},
		{"git@work.github.com:org/repo.git\n", "https://github.com/org/repo"},
		{"git@gitlab.example.org:group/sub/repo.git", "https://gitlab.example.org/group/sub/repo"},
		{"https://github.com/org/repo.git", "https://github.com/org/repo.git"},
		{"git@github.com:org/repo", "git@github.com:org/repo"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeRemoteURL(tt.in))
		})
	}
}

func TestProjectName(t *testing.T) {
	require.Equal(t, "http-echo", ProjectName("https://github.com/org/http-echo", "/src/whatever"))
	require.Equal(t, "repo", ProjectName("https://example.org/org/repo.git/", "/src/whatever"))
	require.Equal(t, "repo", ProjectName("git@host:repo.git", "/src/whatever"))
	require.Equal(t, "checkout", ProjectName("", "/src/checkout"))
}
