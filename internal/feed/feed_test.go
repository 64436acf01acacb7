package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschultzelutter/mowas-beacon/internal/feed"
	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"identifier":"id-1","msgType":"Alert","sent":"2020-08-28T11:00:08+02:00","status":"Actual","info":[{"severity":"Minor","urgency":"Immediate","headline":"h","area":[{"areaDesc":"a","polygon":["10,48 10,49 11,49 11,48 10,48"]}]}]}]`))
	}))
	defer srv.Close()

	c := feed.New(srv.URL)
	ok, broadcasts := c.Fetch(context.Background(), model.Tempest)
	require.True(t, ok)
	require.Len(t, broadcasts, 1)
	assert.Equal(t, "id-1", broadcasts[0].Identifier)
	assert.Equal(t, model.Tempest, broadcasts[0].Category)
}

func TestFetch_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := feed.New(srv.URL)
	ok, broadcasts := c.Fetch(context.Background(), model.Flood)
	assert.False(t, ok)
	assert.Empty(t, broadcasts)
}

func TestFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := feed.New(srv.URL)
	ok, broadcasts := c.Fetch(context.Background(), model.Wildfire)
	assert.False(t, ok)
	assert.Empty(t, broadcasts)
}

func TestFetch_UnknownCategory(t *testing.T) {
	c := feed.New("https://example.invalid")
	ok, broadcasts := c.Fetch(context.Background(), model.Category("BOGUS"))
	assert.False(t, ok)
	assert.Empty(t, broadcasts)
}

func TestFetch_ConnectionError(t *testing.T) {
	c := feed.New("http://127.0.0.1:0")
	ok, broadcasts := c.Fetch(context.Background(), model.Earthquake)
	assert.False(t, ok)
	assert.Empty(t, broadcasts)
}
