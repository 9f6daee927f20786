package auth

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkMaker(t *testing.T) {
	tests := []struct {
		name            string
		baseURL, secret string
		wantErr         bool
	}{
		{name: "OK", baseURL: "http://olia.lt", secret: "s", wantErr: false},
		{name: "Fail URL", baseURL: "", secret: "s", wantErr: true},
		{name: "Fail not http", baseURL: "olia.lt", secret: "s", wantErr: true},
		{name: "Fail secret", baseURL: "http://olia.lt", secret: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLinkMaker(tt.baseURL, tt.secret, time.Hour)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLinkMaker() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func newTestMaker(t *testing.T) *LinkMaker {
	t.Helper()
	lm, err := NewLinkMaker("http://olia.lt/", "secret", time.Hour)
	require.Nil(t, err)
	return lm
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.Nil(t, err)
	return u.Query().Get("token")
}

func TestMakeVerify(t *testing.T) {
	lm := newTestMaker(t)

	link, err := lm.Make("a@b.com", "c1")

	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(link, "http://olia.lt/secure/c1?token="), link)

	email, err := lm.Verify(tokenFromLink(t, link), "c1")
	require.Nil(t, err)
	assert.Equal(t, "a@b.com", email)
}

func TestMake_Fails(t *testing.T) {
	lm := newTestMaker(t)
	_, err := lm.Make("", "c1")
	assert.NotNil(t, err)
	_, err = lm.Make("a@b.com", "")
	assert.NotNil(t, err)
}

func TestVerify_FailOtherCall(t *testing.T) {
	lm := newTestMaker(t)
	link, err := lm.Make("a@b.com", "c1")
	require.Nil(t, err)

	_, err = lm.Verify(tokenFromLink(t, link), "c2")

	assert.NotNil(t, err)
}

func TestVerify_FailExpired(t *testing.T) {
	lm := newTestMaker(t)
	link, err := lm.Make("a@b.com", "c1")
	require.Nil(t, err)
	lm.now = func() time.Time { return time.Now().Add(time.Hour * 2) }

	_, err = lm.Verify(tokenFromLink(t, link), "c1")

	assert.NotNil(t, err)
}

func TestVerify_FailWrongKey(t *testing.T) {
	lm := newTestMaker(t)
	link, err := lm.Make("a@b.com", "c1")
	require.Nil(t, err)
	other, err := NewLinkMaker("http://olia.lt", "other", time.Hour)
	require.Nil(t, err)

	_, err = other.Verify(tokenFromLink(t, link), "c1")

	assert.NotNil(t, err)
}

func TestVerify_FailGarbage(t *testing.T) {
	lm := newTestMaker(t)
	_, err := lm.Verify("olia", "c1")
	assert.NotNil(t, err)
}
