package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungle-dev/linesql/internal/sqlerr"
)

func TestSplit_Plain(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Split("a b c", ' ', false))
	assert.Equal(t, []string{"a", "", "b"}, Split("a  b", ' ', false))
	assert.Equal(t, []string{""}, Split("", ' ', false))
	assert.Equal(t, []string{"a", ""}, Split("a,", ',', false))
}

func TestSplit_IgnoreQuotes(t *testing.T) {
	assert.Equal(t, []string{`"a b"`, "c"}, Split(`"a b" c`, ' ', true))
	assert.Equal(t, []string{"'a b'", "c"}, Split("'a b' c", ' ', true))
	// Mismatched quote kinds do not close each other.
	assert.Equal(t, []string{`"a 'b' c"`}, Split(`"a 'b' c"`, ' ', true))
	// Escaped quote does not end the quoted run.
	assert.Equal(t, []string{`"a\" b"`, "c"}, Split(`"a\" b" c`, ' ', true))
}

func TestExtractQuoted(t *testing.T) {
	assert.Equal(t, "abc", ExtractQuoted(`"abc"`))
	assert.Equal(t, "abc", ExtractQuoted("'abc'"))
	assert.Equal(t, "abc", ExtractQuoted("abc"))
	// Inner unescaped quote of the same kind means no extraction.
	assert.Equal(t, `"a"b"`, ExtractQuoted(`"a"b"`))
	assert.Equal(t, `a\"b`, ExtractQuoted(`"a\"b"`))
	assert.Equal(t, "", ExtractQuoted(""))
	assert.Equal(t, `"`, ExtractQuoted(`"`))
}

func TestUnescape(t *testing.T) {
	got, err := Unescape(`a\"b\\c\'d`)
	require.NoError(t, err)
	assert.Equal(t, `a"b\c'd`, got)

	_, err = Unescape(`a\nb`)
	require.Error(t, err)
	assert.True(t, sqlerr.Is(err, sqlerr.BadEscape))
}

func TestEscapeRegex(t *testing.T) {
	assert.Equal(t, `a\.b\*c`, EscapeRegex("a.b*c"))
	assert.Equal(t, `\[\\\^\$\.\|\?\*\+\(\)\{\}`, EscapeRegex(`[\^$.|?*+(){}`))
	assert.Equal(t, "abc%_", EscapeRegex("abc%_"))
}

func TestQuoteRoundTrip(t *testing.T) {
	for _, s := range []string{"abc", `a"b`, `a\b`, "", "a b"} {
		fields := SplitQuoted(Quote(s))
		require.Len(t, fields, 1)
		assert.Equal(t, s, fields[0])
	}
}

func TestSplitQuoted(t *testing.T) {
	assert.Equal(t, []string{"1", "Ada"}, SplitQuoted(`"1" "Ada"`))
	assert.Equal(t, []string{"a b", "c"}, SplitQuoted(`"a b" c`))
	assert.Equal(t, []string{`say "hi"`}, SplitQuoted(`"say \"hi\""`))
	assert.Nil(t, SplitQuoted("   "))
}
