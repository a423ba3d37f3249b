package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/logging"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, token string)
}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// Credentials are the office account used to obtain a bearer token.
type Credentials struct {
	Email    string
	Password string
}

// Empty reports whether either half of the credential pair is missing.
func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Email) == "" || c.Password == ""
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	IsCheckMFA bool   `json:"isCheckMFA"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

// Authenticate makes sure the client holds a valid token.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err := c.ensureToken(ctx)
	return err
}

// ensureToken returns a valid token, logging in when none is held or it
// has expired. Logins are serialized; waiters reuse the winner's token.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	token, valid := c.token, c.tokenValid()
	c.mu.RUnlock()
	if valid {
		return token, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokenValid() {
		return c.token, nil
	}

	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.issuedAt = c.now()
	c.logins++
	return token, nil
}

// invalidate drops token if it is still current. A 401 seen by several
// workers for the same token therefore triggers one login, not several.
func (c *Client) invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
	}
}

// tokenValid must be called with c.mu held.
func (c *Client) tokenValid() bool {
	if c.token == "" {
		return false
	}
	return c.now().Before(c.issuedAt.Add(c.config.TokenTTL - constants.TokenExpirySkew))
}

// login exchanges credentials for a bearer token.
func (c *Client) login(ctx context.Context) (string, error) {
	endpoint := c.config.AuthURL + c.config.LoginPath
	if c.config.Credentials.Empty() {
		return "", errors.NewAuthenticationError(endpoint, "password", constants.ErrMsgMissingCredentials, nil)
	}

	logger := logging.FromContext(ctx)
	logger.Info().Str("email", logging.Mask(c.config.Credentials.Email)).Msg("Authenticating with platform")

	body, err := json.Marshal(loginRequest{
		Email:    c.config.Credentials.Email,
		Password: c.config.Credentials.Password,
	})
	if err != nil {
		return "", errors.WrapParse("json", "login request", err)
	}

	resp, err := c.send(ctx, http.MethodPost, endpoint, c.config.LoginPath, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		if errors.IsRejected(err) {
			return "", errors.NewAuthenticationError(endpoint, "password", "credentials rejected", err)
		}
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", errors.NewAuthenticationError(endpoint, "password", "credentials rejected",
			errors.NewRequestRejectedError(http.MethodPost, c.config.LoginPath, resp.StatusCode, truncate(resp.Body)))
	}

	token := bearerFromHeader(resp.Header.Get("Authorization"))
	if token == "" {
		var lr loginResponse
		if err := json.Unmarshal(resp.Body, &lr); err == nil {
			token = lr.AccessToken
			if token == "" {
				token = lr.Token
			}
		}
	}
	if token == "" {
		return "", errors.NewAuthenticationError(endpoint, "password", "no token in login response", nil)
	}

	logger.Info().Msg("Authenticated with platform")
	return token, nil
}

func bearerFromHeader(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return ""
}
