package restriction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sqlerr"
)

func userSchema() *record.Schema {
	s := &record.Schema{}
	s.AddColumn(record.ColumnMetadata{ColName: "id", TableName: "users", ColType: "int"})
	s.AddColumn(record.ColumnMetadata{ColName: "name", TableName: "users", ColType: "varchar(10)"})
	s.AddColumn(record.ColumnMetadata{ColName: "score", TableName: "users", ColType: "double"})
	return s
}

func userRow(line string) *record.Row {
	row := record.NewRow(userSchema())
	row.ReadLine(line)
	return row
}

func TestPostfixTransform(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"a = 1", "a = 1"},
		{"a = 1 AND b = 2", "a = 1 b = 2 and"},
		{"a = 1 AND b = 2 OR c = 3", "a = 1 b = 2 c = 3 or and"},
		{"( a = 1 OR b = 2 ) AND c = 3", "a = 1 b = 2 or c = 3 and"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, New(tc.in).Postfix(), tc.in)
	}
}

func TestApply_Empty(t *testing.T) {
	ok, err := New("").Apply(userRow(`"1" "Ada" "2.5"`))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApply_SimpleComparisons(t *testing.T) {
	row := userRow(`"9" "Ada" "2.5"`)
	cases := []struct {
		clause string
		want   bool
	}{
		{"id = 9", true},
		{"id != 9", false},
		{"id < 10", true}, // numeric, not lexicographic
		{"id >= 10", false},
		{`name = "Ada"`, true},
		{`name != "Bob"`, true},
		{"score > 2", true},
		{"score <= 2", false},
		{"9 = id", true},
		{`"Ada" = name`, true},
	}
	for _, tc := range cases {
		got, err := New(tc.clause).Apply(row)
		require.NoError(t, err, tc.clause)
		assert.Equal(t, tc.want, got, tc.clause)
	}
}

func TestApply_BooleanCombinators(t *testing.T) {
	row := userRow(`"9" "Ada" "2.5"`)
	cases := []struct {
		clause string
		want   bool
	}{
		{`id = 9 AND name = "Ada"`, true},
		{`id = 9 AND name = "Bob"`, false},
		{`id = 1 OR name = "Ada"`, true},
		{`id = 1 OR name = "Bob"`, false},
		{`( id = 1 OR id = 9 ) AND score > 2`, true},
		{`( id = 1 OR id = 2 ) AND score > 2`, false},
	}
	for _, tc := range cases {
		got, err := New(tc.clause).Apply(row)
		require.NoError(t, err, tc.clause)
		assert.Equal(t, tc.want, got, tc.clause)
	}
}

func TestApply_Like(t *testing.T) {
	row := userRow(`"9" "Ada" "2.5"`)
	cases := []struct {
		clause string
		want   bool
	}{
		{`name LIKE "A%"`, true},
		{`name LIKE "B%"`, false},
		{`name LIKE "_da"`, true},
		{`name like "%a"`, true},
	}
	for _, tc := range cases {
		got, err := New(tc.clause).Apply(row)
		require.NoError(t, err, tc.clause)
		assert.Equal(t, tc.want, got, tc.clause)
	}
}

func TestApply_Null(t *testing.T) {
	row := record.NewRow(userSchema())
	row.ReadLine(`"9" "` + "\x00" + `" "2.5"`)

	ok, err := New("name = NULL").Apply(row)
	require.NoError(t, err)
	assert.True(t, ok)

	// Everything except '=' against NULL is false.
	for _, clause := range []string{"name != NULL", "name < NULL", "id = NULL"} {
		ok, err := New(clause).Apply(row)
		require.NoError(t, err, clause)
		assert.False(t, ok, clause)
	}
}

func TestApply_TypeMismatch(t *testing.T) {
	row := userRow(`"9" "Ada" "2.5"`)
	_, err := New("id = name").Apply(row)
	require.Error(t, err)
	assert.True(t, sqlerr.Is(err, sqlerr.TypeMismatch))
}

func TestApply_InvalidOperand(t *testing.T) {
	row := userRow(`"9" "Ada" "2.5"`)
	_, err := New("bogus = 1").Apply(row)
	require.Error(t, err)
	assert.True(t, sqlerr.Is(err, sqlerr.InvalidOperand))
}

func TestApply_QuotedValueWithSpaces(t *testing.T) {
	s := &record.Schema{}
	s.AddColumn(record.ColumnMetadata{ColName: "title", TableName: "books", ColType: "varchar(30)"})
	row := record.NewRow(s)
	row.ReadLine(`"The Go Book"`)

	ok, err := New(`title = "The Go Book"`).Apply(row)
	require.NoError(t, err)
	assert.True(t, ok)
}
