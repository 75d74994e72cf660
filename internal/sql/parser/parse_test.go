package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sqlerr"
)

func TestFormatQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"SELECT * FROM users;", "SELECT * FROM users ;"},
		{"SELECT a,b FROM t;", "SELECT a , b FROM t ;"},
		{"INSERT INTO t (a,b) VALUES (1,2);", "INSERT INTO t ( a , b ) VALUES ( 1 , 2 ) ;"},
		{"SELECT  *   FROM t;", "SELECT * FROM t ;"},
		// The '=' pass splits two-character operators; the rejoin step
		// restores them.
		{"SELECT * FROM t WHERE a <= 1;", "SELECT * FROM t WHERE a <= 1 ;"},
		{"SELECT * FROM t WHERE a != 1;", "SELECT * FROM t WHERE a != 1 ;"},
		{"SELECT * FROM t WHERE a >= 1;", "SELECT * FROM t WHERE a >= 1 ;"},
		{"SELECT * FROM t WHERE a=1;", "SELECT * FROM t WHERE a = 1 ;"},
		// Quoted content is left untouched.
		{`SELECT * FROM t WHERE a = "x,(y)";`, `SELECT * FROM t WHERE a = "x,(y)" ;`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatQuery(tc.in), tc.in)
	}
}

func TestParse_RequireSemicolon(t *testing.T) {
	_, err := Parse("SELECT * FROM users")
	require.Error(t, err)
	assert.True(t, sqlerr.Is(err, sqlerr.MalformedQuery))
}

func TestParse_Unbalanced(t *testing.T) {
	for _, q := range []string{
		"SELECT * FROM users ( ;",
		"SELECT * FROM users ) ;",
		`SELECT * FROM users WHERE a = "x;`,
		`SELECT * FROM users WHERE a = 'x;`,
	} {
		_, err := Parse(q)
		require.Error(t, err, q)
		assert.True(t, sqlerr.Is(err, sqlerr.MalformedQuery), q)
	}
}

func TestParse_Create(t *testing.T) {
	q, err := Parse("CREATE TABLE users ( id int , name varchar(10) , PRIMARY KEY ( id ) ) ;")
	require.NoError(t, err)
	assert.Equal(t, Create, q.Type())
	assert.Equal(t, "users", q.Property("tableName"))

	schema, err := record.ParseSchema("users", q.Property("schema"))
	require.NoError(t, err)
	require.Len(t, schema.Columns(), 2)
	id := schema.Columns()[0]
	assert.Equal(t, "id", id.ColName)
	assert.Equal(t, "int", id.ColType)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.NotNull, "primary key implies not null")
	name := schema.Columns()[1]
	assert.Equal(t, "varchar(10)", name.ColType)
	assert.False(t, name.PrimaryKey)
}

func TestParse_CreateOptions(t *testing.T) {
	q, err := Parse("CREATE TABLE orders ( oid int NOT NULL , uid int REFERENCES ( users.id ) ) ;")
	require.NoError(t, err)
	schema, err := record.ParseSchema("orders", q.Property("schema"))
	require.NoError(t, err)
	require.Len(t, schema.Columns(), 2)
	assert.True(t, schema.Columns()[0].NotNull)
	assert.Equal(t, "users.id", schema.Columns()[1].References)
}

func TestParse_CreateRejects(t *testing.T) {
	cases := []string{
		"CREATE TABLE t ( a text ) ;",                               // bad type
		"CREATE TABLE t ( a int , a int ) ;",                        // dup name
		"CREATE TABLE t ( a int , b int , PRIMARY KEY ( a ) , PRIMARY KEY ( b ) ) ;", // two PKs
		"CREATE TABLE t ;",
		"CREATE TABLE t ( a int FOO ) ;",
	}
	for _, qs := range cases {
		_, err := Parse(qs)
		require.Error(t, err, qs)
	}
}

func TestParse_Drop(t *testing.T) {
	q, err := Parse("DROP TABLE users ;")
	require.NoError(t, err)
	assert.Equal(t, Drop, q.Type())
	assert.Equal(t, "users", q.Property("tableName"))

	_, err = Parse("DROP users ;")
	require.Error(t, err)
}

func TestParse_Insert(t *testing.T) {
	q, err := Parse(`INSERT INTO users (id,name) VALUES (1,"Ada");`)
	require.NoError(t, err)
	assert.Equal(t, Insert, q.Type())
	assert.Equal(t, "users", q.Property("tableName"))
	assert.Equal(t, "id,name", q.Property("columnNames"))
	assert.Equal(t, `1,"Ada"`, q.Property("columnValues"))
}

func TestParse_InsertNull(t *testing.T) {
	q, err := Parse("INSERT INTO users ( id , name ) VALUES ( 1 , NULL ) ;")
	require.NoError(t, err)
	assert.Equal(t, "1,"+record.NullValue, q.Property("columnValues"))
}

func TestParse_InsertRejects(t *testing.T) {
	_, err := Parse("INSERT INTO users VALUES ( 1 ) ;")
	require.Error(t, err)
	_, err = Parse("INSERT users ( id ) VALUES ( 1 ) ;")
	require.Error(t, err)
}

func TestParse_Update(t *testing.T) {
	q, err := Parse(`UPDATE users SET name = "Bob" , id = 2 WHERE id = 1 ;`)
	require.NoError(t, err)
	assert.Equal(t, Update, q.Type())
	assert.Equal(t, "users", q.Property("tableName"))
	assert.Equal(t, "name,id", q.Property("columns"))
	assert.Equal(t, `"Bob",2`, q.Property("values"))
	assert.Equal(t, "id = 1", q.Property("restrictions"))
}

func TestParse_UpdateNoWhere(t *testing.T) {
	q, err := Parse(`UPDATE users SET name = NULL ;`)
	require.NoError(t, err)
	assert.Equal(t, record.NullValue, q.Property("values"))
	assert.Equal(t, "", q.Property("restrictions"))
}

func TestParse_Delete(t *testing.T) {
	q, err := Parse("DELETE FROM users WHERE id = 1 ;")
	require.NoError(t, err)
	assert.Equal(t, Delete, q.Type())
	assert.Equal(t, "users", q.Property("tableName"))
	assert.Equal(t, "id = 1", q.Property("restrictions"))

	q, err = Parse("DELETE FROM users ;")
	require.NoError(t, err)
	assert.Equal(t, "", q.Property("restrictions"))
}

func TestParse_Select(t *testing.T) {
	q, err := Parse("SELECT * FROM users ;")
	require.NoError(t, err)
	assert.Equal(t, Select, q.Type())
	assert.Equal(t, "*", q.Property("columnNames"))
	assert.Equal(t, "users", q.Property("tableNames"))
	assert.False(t, q.HasProperty("distinct"))
	assert.False(t, q.HasProperty("desc"))
}

func TestParse_SelectFull(t *testing.T) {
	q, err := Parse(`SELECT DISTINCT name , id FROM users WHERE id > 1 ORDER BY name DESC ;`)
	require.NoError(t, err)
	assert.True(t, q.HasProperty("distinct"))
	assert.Equal(t, "name,id", q.Property("columnNames"))
	assert.Equal(t, "id > 1", q.Property("restrictions"))
	assert.Equal(t, "name", q.Property("orderBy"))
	assert.True(t, q.HasProperty("desc"))
}

func TestParse_SelectJoinConditions(t *testing.T) {
	q, err := Parse("SELECT users.name , orders.oid FROM users , orders WHERE users.id = orders.uid ;")
	require.NoError(t, err)
	assert.Equal(t, "users,orders", q.Property("tableNames"))
	assert.Equal(t, "users.id = orders.uid", q.Property("joinConditions"))
}

func TestParse_SelectJoinConditionsMixed(t *testing.T) {
	q, err := Parse(`SELECT * FROM a , b WHERE a.x = b.y AND a.z = 3 ;`)
	require.NoError(t, err)
	// Only the column/column triple survives.
	assert.Equal(t, "a.x = b.y", q.Property("joinConditions"))
	assert.Equal(t, "a.x = b.y AND a.z = 3", q.Property("restrictions"))
}

func TestParse_SelectMissingFrom(t *testing.T) {
	_, err := Parse("SELECT name users ;")
	require.Error(t, err)
}

func TestParse_InvalidLeadingKeyword(t *testing.T) {
	_, err := Parse("FROB users ;")
	require.Error(t, err)
}
