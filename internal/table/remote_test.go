package table

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungle-dev/linesql/internal/sqlerr"
)

// serveOnce answers a single connection with a canned HTTP response.
func serveOnce(t *testing.T, body string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// Drain the request headers.
		buf := make([]byte, 4096)
		conn.Read(buf)
		fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n%s", body)
	}()
	return ln.Addr().String()
}

func TestFetchRemote(t *testing.T) {
	addr := serveOnce(t, "id name\n1 Ada\n2 Bob\n")
	url := "http://" + addr + "/people.txt"

	tbl, err := FetchRemote(url, time.Second)
	require.NoError(t, err)
	defer tbl.Close()

	assert.True(t, tbl.IsRemote())
	assert.Equal(t, "people.txt", tbl.Name())

	cols := tbl.Schema().Columns()
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].ColName)
	assert.Equal(t, "varchar(25)", cols[0].ColType)
	assert.False(t, cols[0].NotNull)
	assert.False(t, cols[0].PrimaryKey)

	rows := collect(t, tbl)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "Ada"}, rows[0])
	assert.Equal(t, []string{"2", "Bob"}, rows[1])
}

func TestFetchRemote_Non200(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		conn.Read(buf)
		fmt.Fprint(conn, "HTTP/1.1 404 Not Found\r\n\r\n")
	}()

	_, err = FetchRemote("http://"+ln.Addr().String()+"/missing", time.Second)
	require.Error(t, err)
	assert.True(t, sqlerr.Is(err, sqlerr.NotFound))
}

func TestFetchRemote_BadURL(t *testing.T) {
	_, err := FetchRemote("http://no-slash", time.Second)
	require.Error(t, err)
}

func TestRemote_MutationsRejected(t *testing.T) {
	addr := serveOnce(t, "id name\n1 Ada\n")
	tbl, err := FetchRemote("http://"+addr+"/t", time.Second)
	require.NoError(t, err)
	defer tbl.Close()

	err = tbl.InsertRow(nil)
	assert.True(t, sqlerr.Is(err, sqlerr.NotPermittedOnRemote))
	err = tbl.UpdateRows(nil)
	assert.True(t, sqlerr.Is(err, sqlerr.NotPermittedOnRemote))
	err = tbl.DeleteRows()
	assert.True(t, sqlerr.Is(err, sqlerr.NotPermittedOnRemote))
}
