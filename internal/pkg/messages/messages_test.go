package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMessageFrom(t *testing.T) {
	assert.Equal(t, &CallbackMessage{StructuredData: map[string]string{"language": "French"}},
		NewMessageFrom(&CallbackMessage{StructuredData: map[string]string{"language": "French"}}))
}
