package vapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caredial/caredial/internal/pkg/test"
	"github.com/caredial/caredial/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name                              string
		url, key, assistantID, phoneNumID string
		wantErr                           bool
	}{
		{name: "OK", url: "http://olia.lt", key: "key", assistantID: "a1", phoneNumID: "p1", wantErr: false},
		{name: "OK no phone number ID", url: "http://olia.lt", key: "key", assistantID: "a1", wantErr: false},
		{name: "Fail url", url: "", key: "key", assistantID: "a1", wantErr: true},
		{name: "Fail not http", url: "olia.lt", key: "key", assistantID: "a1", wantErr: true},
		{name: "Fail key", url: "http://olia.lt", key: "", assistantID: "a1", wantErr: true},
		{name: "Fail assistant", url: "http://olia.lt", key: "key", assistantID: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.url, tt.key, tt.assistantID, tt.phoneNumID)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCall(t *testing.T) {
	var gotReq callRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Nil(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"id":"c1"}`))
	}))
	defer srv.Close()
	cl, err := NewClient(srv.URL, "key", "a1", "p1")
	require.Nil(t, err)

	id, err := cl.Call(test.Ctx(t), "+15551234567", "a@b.com")

	require.Nil(t, err)
	assert.Equal(t, "c1", id)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "a1", gotReq.AssistantID)
	assert.Equal(t, "p1", gotReq.PhoneNumberID)
	assert.Equal(t, "+15551234567", gotReq.Customer.Number)
	require.NotNil(t, gotReq.AssistantOverrides)
	assert.Equal(t, "a@b.com", gotReq.AssistantOverrides.VariableValues["email"])
}

func TestCall_FailCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"wrong number"}`))
	}))
	defer srv.Close()
	cl, err := NewClient(srv.URL, "key", "a1", "")
	require.Nil(t, err)

	_, err = cl.Call(test.Ctx(t), "+15551234567", "a@b.com")

	require.NotNil(t, err)
	var errU *utils.ErrUpstream
	require.True(t, errors.As(err, &errU))
	assert.Equal(t, "wrong number", errU.Message)
}

func TestCall_FailNoID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	cl, err := NewClient(srv.URL, "key", "a1", "")
	require.Nil(t, err)

	_, err = cl.Call(test.Ctx(t), "+15551234567", "a@b.com")

	require.NotNil(t, err)
	var errU *utils.ErrUpstream
	assert.True(t, errors.As(err, &errU))
}

func TestCall_FailConn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	cl, err := NewClient(srv.URL, "key", "a1", "")
	require.Nil(t, err)

	_, err = cl.Call(test.Ctx(t), "+15551234567", "a@b.com")

	require.NotNil(t, err)
	var errU *utils.ErrUpstream
	assert.True(t, errors.As(err, &errU))
}
