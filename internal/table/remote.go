package table

import (
	"bufio"
	"fmt"
	"log/slog"
	"math"
	"net"
	"strings"
	"time"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sql/restriction"
	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

// FetchRemote opens a read-only table over HTTP. The response body's
// first line names the columns; every column is synthesised as a
// nullable varchar(25). The remaining body lines are the rows. The row
// count is treated as unbounded so a remote table always lands on the
// probe side of a join.
func FetchRemote(url string, timeout time.Duration) (*Table, error) {
	rest := strings.TrimPrefix(url, "http://")
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return nil, sqlerr.New(sqlerr.NotFound, "could not connect to %s", url)
	}
	host, resource := rest[:slash], rest[slash:]
	addr := host
	if !strings.Contains(host, ":") {
		addr = host + ":80"
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, sqlerr.New(sqlerr.NotFound, "could not connect to %s", url)
	}
	if _, err := fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: %s\r\nConnection: Close\r\n\r\n",
		resource, host); err != nil {
		conn.Close()
		return nil, sqlerr.New(sqlerr.NotFound, "could not connect to %s", url)
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil || !strings.Contains(status, "200 OK") {
		conn.Close()
		return nil, sqlerr.New(sqlerr.NotFound, "error accessing %s", url)
	}
	// Skip response headers up to the blank separator line.
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			conn.Close()
			return nil, sqlerr.New(sqlerr.NotFound, "error accessing %s", url)
		}
		if strings.TrimRight(line, "\r\n") == "" {
			break
		}
	}
	header, err := br.ReadString('\n')
	if err != nil && header == "" {
		conn.Close()
		return nil, sqlerr.New(sqlerr.NotFound, "error accessing %s", url)
	}

	var parts []string
	for _, colName := range strings.Fields(strings.TrimRight(header, "\r\n")) {
		parts = append(parts, strutil.Quote(colName)+` "varchar(25)" "" false false`)
	}
	schema, err := record.ParseSchema(url, strings.Join(parts, "\t"))
	if err != nil {
		conn.Close()
		return nil, err
	}
	slog.Debug("remote table", "url", url, "columns", len(schema.Columns()))

	return &Table{
		schema: schema,
		name:   url[strings.LastIndex(url, "/")+1:],
		stream: &remoteStream{br: br, c: conn},
		restr:  restriction.New(""),
		seen:   map[string]bool{},
		// Unbounded: the body is streamed, never counted.
		rowCount:      math.MaxInt32,
		fromURL:       true,
		hasRows:       true,
		headerSkipped: true,
	}, nil
}
