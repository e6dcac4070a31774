package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
)

// ErrInvalidToken is returned when the identity provider rejects a
// bearer credential.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier verifies bearer credentials against an identity provider
// and resolves the owning user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*domain.User, error)
}

// Config holds configuration for the identity provider client.
type Config struct {
	BaseURL    string
	ServiceKey string
}

// Verifier delegates token verification and user lookup to an external
// GoTrue-compatible identity provider over its REST API.
type Verifier struct {
	client  *resty.Client
	baseURL string
}

// NewVerifier creates a new identity provider client.
// Parameters:
//   - cfg: identity configuration including base URL and service key.
// Returns:
//   - *Verifier: initialized provider client.
func NewVerifier(cfg *Config) *Verifier {
	client := resty.New()
	client.SetHeader("apikey", cfg.ServiceKey)
	client.SetTimeout(10 * time.Second)

	return &Verifier{
		client:  client,
		baseURL: cfg.BaseURL,
	}
}

type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// VerifyToken validates a bearer token and returns the user it belongs to.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - token: bearer credential presented by the client.
// Returns:
//   - *domain.User: resolved user on success.
//   - error: ErrInvalidToken if the provider rejects the credential,
//     another error if the call itself fails.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	var user userResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&user).
		Get(v.baseURL + "/auth/v1/user")

	if err != nil {
		return nil, fmt.Errorf("failed to call identity provider: %w", err)
	}

	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("identity provider returned HTTP %d", resp.StatusCode())
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}

	return &domain.User{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.UserMetadata.FullName,
	}, nil
}

// SignOut invalidates the session behind a bearer token. Best-effort:
// the client discards its token either way.
func (v *Verifier) SignOut(ctx context.Context, token string) error {
	resp, err := v.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		Post(v.baseURL + "/auth/v1/logout")

	if err != nil {
		return fmt.Errorf("failed to call identity provider: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("identity provider returned HTTP %d", resp.StatusCode())
	}
	return nil
}
