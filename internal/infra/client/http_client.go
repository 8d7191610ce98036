package client

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient は外部サービス呼び出し用の *http.Client（トレース付き）。
// タイムアウトはリクエストごとのcontextで掛ける。
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
