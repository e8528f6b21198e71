package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/muhammadolammi/jobmatchclient/internal/gateway"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
)

func (c *Client) Login(ctx context.Context, email, password string) error {
	if err := models.Required("Email and password are required", map[string]string{
		"email":    email,
		"password": password,
	}); err != nil {
		return err
	}
	var tok models.TokenResponse
	req := requestJSON(http.MethodPost, "/login", models.LoginRequest{Email: email, Password: password}, &tok)
	req.NoRefresh = true
	_, err := c.gw.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return c.gw.Session().SetToken(ctx, tok.AccessToken)
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	fields := map[string]string{"email": req.Email, "password": req.Password}
	switch req.Role {
	case models.RoleJobSeeker:
		fields["first_name"] = req.FirstName
		fields["last_name"] = req.LastName
		req.CompanyName, req.CompanyWebsite, req.CompanySize, req.CompanyIndustry = "", "", 0, ""
	case models.RoleEmployer:
		fields["company_name"] = req.CompanyName
		req.FirstName, req.LastName = "", ""
	default:
		return models.NewValidationError("Choose a role", map[string]string{"role": "must be job_seeker or employer"})
	}
	if err := models.Required("Registration details are incomplete", fields); err != nil {
		return err
	}
	r := requestJSON(http.MethodPost, "/register", req, nil)
	r.NoRefresh = true
	if _, err := c.gw.Do(ctx, r); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Me fetches the current user. Any failure drops the stored credential.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	if !c.gw.Session().Authenticated(ctx) {
		return nil, fmt.Errorf("unable to validate user session: no token found")
	}
	var u models.User
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodGet, "/me", nil, &u)); err != nil {
		if clearErr := c.gw.Session().Clear(ctx); clearErr != nil {
			c.logger.Printf("⚠️ failed to clear credential: %v", clearErr)
		}
		return nil, fmt.Errorf("unable to validate user session: %w", err)
	}
	c.gw.Session().SetUser(&u)
	return &u, nil
}

// Bootstrap restores the signed-in user: me, else refresh then me.
func (c *Client) Bootstrap(ctx context.Context) (*models.User, error) {
	if !c.gw.Session().Authenticated(ctx) {
		return nil, nil
	}
	u, err := c.Me(ctx)
	if err == nil {
		return u, nil
	}
	// the gateway already tried its one refresh and cleared the credential
	if errors.Is(err, gateway.ErrSessionExpired) {
		return nil, err
	}
	if err := c.gw.Refresh(ctx); err != nil {
		c.logger.Println("User must login again")
		if clearErr := c.gw.Session().Clear(ctx); clearErr != nil {
			c.logger.Printf("⚠️ failed to clear credential: %v", clearErr)
		}
		return nil, fmt.Errorf("failed to refresh token, please login again: %w", err)
	}
	return c.Me(ctx)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.gw.Session().Clear(ctx)
}
