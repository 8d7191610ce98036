package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cartservice/internal/domain/model"
)

// UserClient はユーザーサービスのRESTクライアント。
type UserClient struct {
	rest *restClient
}

func NewUserClient(baseURL string, httpClient *http.Client, timeout time.Duration) *UserClient {
	return &UserClient{rest: newRestClient("users", baseURL, httpClient, timeout)}
}

func (c *UserClient) GetUser(ctx context.Context, userID int64) (model.User, error) {
	var u model.User
	path := fmt.Sprintf("/users/%d", userID)
	if err := c.rest.do(ctx, http.MethodGet, path, nil, &u, model.ErrUserNotFound); err != nil {
		return model.User{}, err
	}
	return u, nil
}
