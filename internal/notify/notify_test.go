package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	received []string
	err      error
}

func (s *recordingSink) Notify(_ context.Context, text string) error {
	s.received = append(s.received, text)
	return s.err
}

func TestNotifyFansOutToEverySink(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := New(a, b)

	m.Notify(context.Background(), "buy BTC/USDT at 100")

	assert.Equal(t, []string{"buy BTC/USDT at 100"}, a.received)
	assert.Equal(t, []string{"buy BTC/USDT at 100"}, b.received)
}

func TestNotifyContinuesPastFailingSink(t *testing.T) {
	broken := &recordingSink{err: errors.New("network down")}
	ok := &recordingSink{}
	m := New(broken, ok)

	m.Notify(context.Background(), "sell BTC/USDT reason=roi")

	assert.Equal(t, []string{"sell BTC/USDT reason=roi"}, ok.received)
}

func TestAddAppendsSinkAfterConstruction(t *testing.T) {
	a := &recordingSink{}
	m := New()
	m.Add(a)

	m.Notify(context.Background(), "hello")

	assert.Equal(t, []string{"hello"}, a.received)
}

func TestLogSinkNeverErrors(t *testing.T) {
	assert.NoError(t, LogSink{}.Notify(context.Background(), "anything"))
}
