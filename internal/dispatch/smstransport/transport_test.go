package smstransport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschultzelutter/mowas-beacon/internal/dispatch/smstransport"
)

func TestHTTPSender_Send(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := smstransport.NewHTTPSender(srv.URL)
	err := sender.Send(context.Background(), "evacuate now", true)
	require.NoError(t, err)
	assert.Equal(t, "evacuate now", received["message"])
	assert.Equal(t, true, received["high_priority"])
}

func TestHTTPSender_NotConfigured(t *testing.T) {
	sender := smstransport.NewHTTPSender("")
	err := sender.Send(context.Background(), "x", false)
	assert.Error(t, err)
}

func TestHTTPSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender := smstransport.NewHTTPSender(srv.URL)
	err := sender.Send(context.Background(), "x", false)
	assert.Error(t, err)
}

func TestSendAll_SendsEverySegmentAndStopsOnError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := smstransport.NewHTTPSender(srv.URL)
	longMessage := "Evacuate the area immediately and proceed to the nearest designated shelter without delay because conditions are worsening rapidly"
	err := smstransport.SendAll(context.Background(), sender, longMessage, 67, true, false)
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}
