package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRejectsEmptyToken(t *testing.T) {
	_, err := New("", 123456789, nil)
	assert.Error(t, err)
}

func TestListenCommandsReturnsImmediatelyWithoutController(t *testing.T) {
	s := &Sink{chatID: 1}
	// handle is only ever reached after the nil-controller guard, so
	// this must return without touching the (nil) Telegram api client.
	s.ListenCommands(context.Background())
}
