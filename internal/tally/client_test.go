package tally

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	var gotBody, gotType, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		_, _ = w.Write([]byte("<RESPONSE><CREATED>1</CREATED></RESPONSE>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	assert.Equal(t, srv.URL, client.Endpoint())

	resp, err := client.Send(context.Background(), []byte("<ENVELOPE/>"))
	require.NoError(t, err)
	assert.Equal(t, "<RESPONSE><CREATED>1</CREATED></RESPONSE>", string(resp))
	assert.Equal(t, "<ENVELOPE/>", gotBody)
	assert.Equal(t, "text/xml", gotType)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestClient_Send_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Send(context.Background(), []byte("<ENVELOPE/>"))
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_Send_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewClient("http://"+addr).Send(context.Background(), []byte("<ENVELOPE/>"))
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.False(t, IsRejection(err))
}

func TestClient_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond)).Send(context.Background(), []byte("<ENVELOPE/>"))
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
}

func TestClient_Send_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<RESPONSE/>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRateLimit(0.001), WithHTTPClient(srv.Client()))

	_, err := client.Send(context.Background(), []byte("<ENVELOPE/>"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Send(ctx, []byte("<ENVELOPE/>"))
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
}
