package summarizer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caredial/caredial/internal/pkg/test"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name            string
		url, key, model string
		wantErr         bool
	}{
		{name: "OK", url: "http://olia.lt", key: "key", model: "m", wantErr: false},
		{name: "Fail url", url: "", key: "key", model: "m", wantErr: true},
		{name: "Fail key", url: "http://olia.lt", key: "", model: "m", wantErr: true},
		{name: "Fail model", url: "http://olia.lt", key: "key", model: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.url, tt.key, tt.model)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cl, err := NewClient(url, "key", "gpt-3.5-turbo")
	require.Nil(t, err)
	cl.backoff = func() backoff.BackOff { return &backoff.StopBackOff{} }
	return cl
}

func TestSummarize(t *testing.T) {
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Nil(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Patient has a rash."}}]}`))
	}))
	defer srv.Close()
	cl := newTestClient(t, srv.URL)

	res, err := cl.Summarize(test.Ctx(t), map[string]string{"language": "English", "symptom": "rash"})

	require.Nil(t, err)
	assert.Equal(t, "Patient has a rash.", res)
	assert.Equal(t, "gpt-3.5-turbo", gotReq.Model)
	require.Equal(t, 1, len(gotReq.Messages))
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "summary in English")
	assert.Contains(t, gotReq.Messages[0].Content, "rash")
}

func TestTranslate(t *testing.T) {
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Nil(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"El paciente tiene un sarpullido."}}]}`))
	}))
	defer srv.Close()
	cl := newTestClient(t, srv.URL)

	res, err := cl.Translate(test.Ctx(t), "Patient has a rash.", "Spanish")

	require.Nil(t, err)
	assert.Equal(t, "El paciente tiene un sarpullido.", res)
	assert.Contains(t, gotReq.Messages[0].Content, "to Spanish")
	assert.Contains(t, gotReq.Messages[0].Content, "Patient has a rash.")
}

func TestComplete_FailCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	cl := newTestClient(t, srv.URL)

	_, err := cl.Summarize(test.Ctx(t), map[string]string{"language": "English"})

	assert.NotNil(t, err)
}

func TestComplete_FailEmpty(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{name: "no choices", resp: `{"choices":[]}`},
		{name: "empty content", resp: `{"choices":[{"message":{"content":"  "}}]}`},
		{name: "not json", resp: `olia`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.resp))
			}))
			defer srv.Close()
			cl := newTestClient(t, srv.URL)

			_, err := cl.Summarize(test.Ctx(t), map[string]string{"language": "English"})

			assert.NotNil(t, err)
		})
	}
}

func TestComplete_Retries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()
	cl, err := NewClient(srv.URL, "key", "m")
	require.Nil(t, err)
	cl.backoff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3) }

	res, err := cl.Summarize(test.Ctx(t), map[string]string{"a": "b"})

	require.Nil(t, err)
	assert.Equal(t, "ok", res)
	assert.True(t, calls > 1, "expected retry, got %d calls", calls)
}

func TestSummarize_PromptKeepsData(t *testing.T) {
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Nil(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()
	cl := newTestClient(t, srv.URL)

	_, err := cl.Summarize(test.Ctx(t), map[string]string{"category": "dermatology", "urgency": "low"})

	require.Nil(t, err)
	for _, s := range []string{"category", "dermatology", "urgency", "low"} {
		assert.True(t, strings.Contains(gotReq.Messages[0].Content, s), "no %s in prompt", s)
	}
}
