package position_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschultzelutter/mowas-beacon/internal/position"
)

func TestAprsFi_Locate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		assert.Equal(t, "DL0ABC-9", r.URL.Query().Get("name"))
		w.Write([]byte(`{"result":"ok","entries":[{"lat":"48.4781","lng":"10.7740"}]}`))
	}))
	defer srv.Close()

	a := position.NewAprsFi("secret")
	a.BaseURL = srv.URL

	wp, err := a.Locate(context.Background(), "DL0ABC-9")
	require.NoError(t, err)
	assert.InDelta(t, 48.4781, wp.Latitude, 0.0001)
	assert.InDelta(t, 10.7740, wp.Longitude, 0.0001)
	assert.True(t, wp.IsLive)
}

func TestAprsFi_Locate_NoEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"ok","entries":[]}`))
	}))
	defer srv.Close()

	a := position.NewAprsFi("secret")
	a.BaseURL = srv.URL

	_, err := a.Locate(context.Background(), "DL0ABC-9")
	assert.Error(t, err)
}

func TestAprsFi_Locate_MissingKey(t *testing.T) {
	a := position.NewAprsFi("")
	_, err := a.Locate(context.Background(), "DL0ABC-9")
	assert.Error(t, err)
}

func TestNoop_AlwaysFails(t *testing.T) {
	_, err := position.Noop{}.Locate(context.Background(), "DL0ABC-9")
	assert.Error(t, err)
}
