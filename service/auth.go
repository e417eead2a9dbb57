package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cinetix-cli/model"
)

func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.AuthResponse, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return model.AuthResponse{}, fmt.Errorf("%w: username and password", errMissingParameter)
	}
	return c.authenticate(ctx, "/login", creds)
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (model.AuthResponse, error) {
	if strings.TrimSpace(reg.Username) == "" || strings.TrimSpace(reg.Email) == "" || reg.Password == "" {
		return model.AuthResponse{}, fmt.Errorf("%w: username, email and password", errMissingParameter)
	}
	return c.authenticate(ctx, "/register", reg)
}

func (c *Client) authenticate(ctx context.Context, endpoint string, body any) (model.AuthResponse, error) {
	var out model.AuthResponse
	r := request{method: http.MethodPost, path: endpoint, body: body, public: true}
	if err := c.do(ctx, r, &out); err != nil {
		return model.AuthResponse{}, err
	}
	if err := c.checkStruct(endpoint, &out); err != nil {
		return model.AuthResponse{}, err
	}
	return out, nil
}
