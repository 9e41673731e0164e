package binance

import (
	"strconv"
	"time"

	binanceapi "github.com/adshao/go-binance/v2"

	"github.com/kryofly/freqtrade/internal/exchange"
)

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

func parseInt(s string) int64 {
	i, _ := strconv.ParseInt(s, 10, 64)
	return i
}

func orderSide(s binanceapi.SideType) exchange.OrderSide {
	if s == binanceapi.SideTypeSell {
		return exchange.OrderSideSell
	}
	return exchange.OrderSideBuy
}

func orderStatus(s binanceapi.OrderStatusType) exchange.OrderStatus {
	switch s {
	case binanceapi.OrderStatusTypeFilled:
		return exchange.OrderStatusFilled
	case binanceapi.OrderStatusTypeCanceled, binanceapi.OrderStatusTypeExpired:
		return exchange.OrderStatusCancelled
	case binanceapi.OrderStatusTypeRejected:
		return exchange.OrderStatusRejected
	default:
		return exchange.OrderStatusOpen
	}
}

func klineInterval(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return "1d"
	case d >= time.Hour:
		return strconv.Itoa(int(d/time.Hour)) + "h"
	default:
		return strconv.Itoa(int(d/time.Minute)) + "m"
	}
}
