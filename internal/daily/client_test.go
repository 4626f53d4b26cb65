package daily

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestCreateRoom(t *testing.T) {
	var gotBody createRoomRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rooms", r.URL.Path)
		require.Equal(t, "Bearer dk-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(roomResponse{Name: "call-42", URL: "https://pnptv.daily.co/call-42"})
	}))
	defer srv.Close()

	client := NewClient(config.DailyConfig{APIKey: "dk-1", BaseURL: srv.URL}, testLogger())

	expires := time.Now().Add(time.Hour)
	room, err := client.CreateRoom(context.Background(), "call-42", expires)
	require.NoError(t, err)
	assert.Equal(t, "call-42", room.Name)
	assert.Equal(t, "https://pnptv.daily.co/call-42", room.URL)
	assert.Equal(t, "private", gotBody.Privacy)
	assert.Equal(t, expires.Unix(), gotBody.Properties.Exp)
	assert.True(t, gotBody.Properties.EjectAtExp)
}

func TestCreateRoomURLFromDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(roomResponse{Name: "stream-5"})
	}))
	defer srv.Close()

	client := NewClient(config.DailyConfig{BaseURL: srv.URL, Domain: "pnptv"}, testLogger())
	room, err := client.CreateRoom(context.Background(), "stream-5", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "https://pnptv.daily.co/stream-5", room.URL)
}

func TestDeleteRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/rooms/call-42", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(config.DailyConfig{BaseURL: srv.URL}, testLogger())
	assert.NoError(t, client.DeleteRoom(context.Background(), "call-42"))
}

func TestDeleteRoomAlreadyGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(config.DailyConfig{BaseURL: srv.URL}, testLogger())
	assert.NoError(t, client.DeleteRoom(context.Background(), "gone"))
}
