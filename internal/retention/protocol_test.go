package retention

import (
	"net"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeConns returns a connected client/server pair of textproto.Conns
// wired over an in-memory net.Pipe, standing in for the TLS connection
// sweepOnce otherwise dials.
func pipeConns(t *testing.T) (client, server *textproto.Conn) {
	t.Helper()
	c1, c2 := net.Pipe()
	t.Cleanup(func() { c1.Close(); c2.Close() })
	return textproto.NewConn(c1), textproto.NewConn(c2)
}

func TestImapSearch_CollectsMessageNumbersFromUntaggedSearch(t *testing.T) {
	client, server := pipeConns(t)

	done := make(chan struct{})
	var ids []string
	var err error
	go func() {
		ids, err = imapSearch(client, "a3", `SEARCH BEFORE "01-Jan-2024"`)
		close(done)
	}()

	_, err2 := server.ReadLine()
	require.NoError(t, err2)
	require.NoError(t, server.PrintfLine("* SEARCH 1 3 5"))
	require.NoError(t, server.PrintfLine("a3 OK SEARCH completed"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("imapSearch did not return")
	}
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "5"}, ids)
}

func TestImapSearch_NoMatchesReturnsEmpty(t *testing.T) {
	client, server := pipeConns(t)

	done := make(chan struct{})
	var ids []string
	var err error
	go func() {
		ids, err = imapSearch(client, "a3", `SEARCH BEFORE "01-Jan-2024"`)
		close(done)
	}()

	_, err2 := server.ReadLine()
	require.NoError(t, err2)
	require.NoError(t, server.PrintfLine("* SEARCH"))
	require.NoError(t, server.PrintfLine("a3 OK SEARCH completed"))

	<-done
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestImapSearch_IgnoresUnrelatedUntaggedData(t *testing.T) {
	client, server := pipeConns(t)

	done := make(chan struct{})
	var err error
	go func() {
		_, err = imapSearch(client, "a4", "STORE 1,3,5 +FLAGS (\\Deleted)")
		close(done)
	}()

	_, err2 := server.ReadLine()
	require.NoError(t, err2)
	require.NoError(t, server.PrintfLine("* 1 FETCH (FLAGS (\\Deleted))"))
	require.NoError(t, server.PrintfLine("* 3 FETCH (FLAGS (\\Deleted))"))
	require.NoError(t, server.PrintfLine("a4 OK STORE completed"))

	<-done
	assert.NoError(t, err)
}

func TestImapSearch_ReportsTaggedFailure(t *testing.T) {
	client, server := pipeConns(t)

	done := make(chan struct{})
	var err error
	go func() {
		_, err = imapSearch(client, "a2", "SELECT NoSuchMailbox")
		close(done)
	}()

	_, err2 := server.ReadLine()
	require.NoError(t, err2)
	require.NoError(t, server.PrintfLine("a2 NO Mailbox does not exist"))

	<-done
	assert.Error(t, err)
}
