package utils

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrUpstream_Error(t *testing.T) {
	assert.Equal(t, "upstream error: no money", NewErrUpstream("no money", errors.New("olia")).Error())
	assert.Equal(t, "upstream error: olia", NewErrUpstream("", errors.New("olia")).Error())
	assert.Equal(t, "upstream error", NewErrUpstream("", nil).Error())
}

func TestErrUpstream_Unwrap(t *testing.T) {
	assert.True(t, errors.Is(NewErrUpstream("", io.EOF), io.EOF))
}

func TestErrUpstream_As(t *testing.T) {
	var errU *ErrUpstream
	assert.True(t, errors.As(NewErrUpstream("msg", nil), &errU))
	assert.Equal(t, "msg", errU.Message)
}
