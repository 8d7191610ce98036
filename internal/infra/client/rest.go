package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cartservice/internal/domain/model"

	"github.com/sony/gobreaker/v2"
)

// 404はブレーカーの失敗に数えない
var errUpstreamNotFound = errors.New("upstream not found")

// 呼び出し元が先にキャンセルした。相手の障害ではないので失敗に数えない
var errCallerGone = errors.New("caller gone")

// 読み込むレスポンスボディの上限
const maxBodyBytes = 1 << 20

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// restClient はJSON over HTTPの共通部分（タイムアウト＋サーキットブレーカー）。
type restClient struct {
	service string
	baseURL string
	http    *http.Client
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func newRestClient(service string, baseURL string, httpClient *http.Client, timeout time.Duration) *restClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        service,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errUpstreamNotFound) || errors.Is(err, errCallerGone)
		},
	})

	return &restClient{
		service: service,
		baseURL: baseURL,
		http:    httpClient,
		timeout: timeout,
		cb:      cb,
	}
}

// do はリクエストを送り、2xxならoutにデコードする。
// 404はnotFound、それ以外の失敗は model.ErrExternalService でラップする。
func (c *restClient) do(parent context.Context, method string, path string, body any, out any, notFound error) error {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", c.service, err)
		}
		payload = b
	}

	raw, err := c.cb.Execute(func() ([]byte, error) {
		raw, err := c.roundTrip(ctx, method, path, payload)
		if err != nil && parent.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, err)
		}
		return raw, err
	})
	if errors.Is(err, errUpstreamNotFound) {
		return fmt.Errorf("%w: %s %s", notFound, method, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %s %s: %w", model.ErrExternalService, c.service, method, path, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", model.ErrExternalService, c.service, err)
	}
	return nil
}

func (c *restClient) roundTrip(ctx context.Context, method string, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errUpstreamNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
