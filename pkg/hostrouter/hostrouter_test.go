package hostrouter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/hostrouter"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		match   []string
		noMatch []string
	}{
		{"exact", "api.example.com", []string{"api.example.com", "API.example.com"}, []string{"www.example.com"}},
		{"list", "a.example.com, b.example.com", []string{"a.example.com", "b.example.com"}, []string{"c.example.com"}},
		{"regex", `/^www\.example\.(com|org)$/`, []string{"www.example.com", "www.example.org"}, []string{"www.example.net", "xwww.example.com"}},
		{"regex flags", "/EXAMPLE/i", []string{"my.example.com"}, []string{"my.sample.com"}},
		{"any", "*", []string{"anything.at.all", "localhost"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := hostrouter.Parse(tt.key)
			require.NoError(t, err)
			for _, h := range tt.match {
				require.True(t, p.Match(h), "expected %q to match %q", tt.key, h)
			}
			for _, h := range tt.noMatch {
				require.False(t, p.Match(h), "expected %q not to match %q", tt.key, h)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "  ", "/unterminated", "/^(/"} {
		_, err := hostrouter.Parse(key)
		require.Error(t, err, "key %q", key)
	}
}

func TestTable_FirstHitWins(t *testing.T) {
	t.Parallel()

	var table hostrouter.Table[string]
	add := func(key, val string) {
		p, err := hostrouter.Parse(key)
		require.NoError(t, err)
		table.Add(p, val)
	}

	add(`/^www\./`, "regex")
	add("www.example.com", "exact")
	add("*", "default")
	require.Equal(t, 3, table.Len())

	// Declaration order decides: the regex is declared first, so the
	// overlapping exact pattern never sees www hosts.
	v, pattern, ok := table.Match("www.example.com")
	require.True(t, ok)
	require.Equal(t, "regex", v)
	require.Equal(t, `/^www\./`, pattern.String())

	v, _, ok = table.Match("api.example.com")
	require.True(t, ok)
	require.Equal(t, "default", v)
}

func TestTable_NoMatch(t *testing.T) {
	t.Parallel()

	var table hostrouter.Table[int]
	p, err := hostrouter.Parse("only.example.com")
	require.NoError(t, err)
	table.Add(p, 1)

	_, _, ok := table.Match("other.example.com")
	require.False(t, ok)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"example.com:8080", "example.com"},
		{"Example.COM", "example.com"},
		{"[::1]:8080", "[::1]"},
		{"[::1]", "[::1]"},
		{"localhost", "localhost"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, hostrouter.Normalize(tt.in))
	}
}

func TestUnicode(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bücher.example", hostrouter.Unicode("xn--bcher-kva.example:443"))
	require.Equal(t, "plain.example", hostrouter.Unicode("plain.example"))
}
