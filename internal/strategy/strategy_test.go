package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetBidReturnsAskWhenAskBelowLast(t *testing.T) {
	got := TargetBid(Ticker{Ask: 99, Last: 100}, 0.5)
	assert.Equal(t, 99.0, got)
}

func TestTargetBidBlendsTowardLastWhenAskAboveLast(t *testing.T) {
	got := TargetBid(Ticker{Ask: 101, Last: 100}, 0.5)
	assert.Equal(t, 100.5, got)
}

func TestTargetBidZeroBalancePinsToAsk(t *testing.T) {
	got := TargetBid(Ticker{Ask: 101, Last: 100}, 0)
	assert.Equal(t, 101.0, got)
}
