package targets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"server", "http-echo", 8},
		{"client", "http-echo", 8},
		{"http-echo", "http-echo", 0},
		{"stamp", "buildstamp", 5},
		{"héllo", "hello", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			require.Equal(t, tt.want, Distance(tt.a, tt.b))
		})
	}
}

func TestDistanceProperties(t *testing.T) {
	words := []string{"", "a", "ab", "server", "client", "http-echo", "echo", "httpd", "ēcho", "buildstamp", "stamp", "cmd"}
	for _, x := range words {
		require.Zero(t, Distance(x, x), "d(%q,%q)", x, x)
		for _, y := range words {
			dxy := Distance(x, y)
			require.Equal(t, dxy, Distance(y, x), "symmetry %q %q", x, y)
			if x != y {
				require.Positive(t, dxy)
			}
			for _, z := range words {
				require.LessOrEqual(t, Distance(x, z), dxy+Distance(y, z), "triangle %q %q %q", x, y, z)
			}
		}
	}
}

func TestSelectMain(t *testing.T) {
	set := Set{
		"server": {Name: "server", SourcePath: "./cmd/server/..."},
		"client": {Name: "client", SourcePath: "./cmd/client/..."},
	}
	// both are 8 edits from http-echo; the lexical tie-break picks client
	name, ok := SelectMain(set, "http-echo")
	require.True(t, ok)
	require.Equal(t, "client", name)

	set["http-echo"] = Target{Name: "http-echo", SourcePath: "./cmd/http-echo/..."}
	name, ok = SelectMain(set, "http-echo")
	require.True(t, ok)
	require.Equal(t, "http-echo", name)

	name, ok = SelectMain(Set{"buildstamp": {Name: "buildstamp"}, "stamp": {Name: "stamp"}}, "buildstamp")
	require.True(t, ok)
	require.Equal(t, "buildstamp", name)
}

func TestSelectMainEmpty(t *testing.T) {
	name, ok := SelectMain(Set{}, "http-echo")
	require.False(t, ok)
	require.Empty(t, name)

	name, ok = SelectMain(nil, "")
	require.False(t, ok)
	require.Empty(t, name)
}

func TestSelectMainIsDeterministic(t *testing.T) {
	set := Set{}
	for _, n := range []string{"bbb", "aaa", "ccc", "ddd"} {
		set[n] = Target{Name: n}
	}
	for range 50 {
		name, _ := SelectMain(set, "xyz")
		require.Equal(t, "aaa", name)
	}
}
