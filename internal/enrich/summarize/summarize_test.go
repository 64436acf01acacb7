package summarize_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschultzelutter/mowas-beacon/internal/enrich/summarize"
)

func TestInternal_ShortTextPassthrough(t *testing.T) {
	s := summarize.Internal{MaxLength: 120}
	out, err := s.Summarize(context.Background(), "Short message.")
	require.NoError(t, err)
	assert.Equal(t, "Short message.", out)
}

func TestInternal_TruncatesAtSentenceBoundary(t *testing.T) {
	s := summarize.Internal{MaxLength: 20}
	out, err := s.Summarize(context.Background(), "Evacuate now. Seek shelter immediately.")
	require.NoError(t, err)
	assert.Equal(t, "Evacuate now.", out)
}

func TestInternal_FallsBackToWordBoundary(t *testing.T) {
	s := summarize.Internal{MaxLength: 15}
	out, err := s.Summarize(context.Background(), "Evacuate the area immediately")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 15)
	assert.False(t, strings.HasSuffix(out, "immediate"))
}

func TestInternal_DefaultsMaxLength(t *testing.T) {
	s := summarize.Internal{}
	long := strings.Repeat("a ", 100)
	out, err := s.Summarize(context.Background(), long)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), summarize.DefaultInternalMaxLength)
}

func TestGeneric_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"summary":"short"}`))
	}))
	defer srv.Close()

	g := summarize.NewGeneric(srv.URL)
	out, err := g.Summarize(context.Background(), "a long warning message")
	require.NoError(t, err)
	assert.Equal(t, "short", out)
}

func TestGeneric_NotConfigured(t *testing.T) {
	g := summarize.NewGeneric("")
	_, err := g.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, summarize.ErrNotConfigured)
}

func TestOpenAI_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"summary":"short"}`))
	}))
	defer srv.Close()

	o := summarize.NewOpenAI("secret")
	o.Endpoint = srv.URL
	out, err := o.Summarize(context.Background(), "a long warning message")
	require.NoError(t, err)
	assert.Equal(t, "short", out)
}

func TestOpenAI_NotConfigured(t *testing.T) {
	o := summarize.NewOpenAI("")
	_, err := o.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, summarize.ErrNotConfigured)
}

func TestPaLM_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"summary":"short"}`))
	}))
	defer srv.Close()

	p := summarize.NewPaLM("secret")
	p.Endpoint = srv.URL
	out, err := p.Summarize(context.Background(), "a long warning message")
	require.NoError(t, err)
	assert.Equal(t, "short", out)
}

func TestPaLM_NotConfigured(t *testing.T) {
	p := summarize.NewPaLM("")
	_, err := p.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, summarize.ErrNotConfigured)
}
