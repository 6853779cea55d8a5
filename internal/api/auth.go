package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"quizbattle/internal/domain"
)

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	return c.login(ctx, "/auth/login", creds)
}

func (c *Client) AdminLogin(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	return c.login(ctx, "/auth/admin/login", creds)
}

func (c *Client) login(ctx context.Context, path string, creds domain.Credentials) (domain.LoginResult, error) {
	var out domain.LoginResult
	err := c.anonymousPost(ctx, path, creds, &out)
	return out, err
}

// Register creates a player account. The response body is passed through as-is.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (map[string]any, error) {
	out := map[string]any{}
	err := c.anonymousPost(ctx, "/auth/register", reg, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context) (domain.Profile, error) {
	var out domain.Profile
	err := c.getJSON(ctx, "/auth/profile", nil, &out)
	return out, err
}

func (c *Client) anonymousPost(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(body),
		contentType: "application/json",
		anonymous:   true,
	}, out)
}
