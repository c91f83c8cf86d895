package authcode

import (
	"context"
	"fmt"
	"time"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/pkg/oauthclient"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
	"github.com/ArkinSolomon/xpkg-core/pkg/xtoken"
)

// AuthorizeRequest is the validated authorize-endpoint input (spec.md §4.2).
type AuthorizeRequest struct {
	ClientID            string
	UserID              string
	RedirectURI         string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	TokenTTL            time.Duration
}

// ExchangeRequest is the token-endpoint input redeeming a code.
type ExchangeRequest struct {
	ClientID     string
	ClientSecret string
	Code         string
	CodeVerifier string
	RedirectURI  string
}

// Service implements the authorize/exchange halves of the OAuth
// authorization-code + PKCE flow.
type Service struct {
	codes     *Store
	clients   *oauthclient.Store
	tokens    xtoken.Repository
	clientSvc *oauthclient.Service
	limiter   *auth.RateLimiter
}

// NewService builds an authcode Service. limiter may be nil, in which case
// exchange attempts aren't rate-limited (tests construct Service this way).
func NewService(codes *Store, clients *oauthclient.Store, tokens xtoken.Repository, clientSvc *oauthclient.Service, limiter *auth.RateLimiter) *Service {
	return &Service{codes: codes, clients: clients, tokens: tokens, clientSvc: clientSvc, limiter: limiter}
}

// Authorize validates an authorize request against the registered client
// and mints a fresh authorization code (spec.md §4.2 step 1). Only the S256
// PKCE method is supported.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) (string, error) {
	if req.CodeChallengeMethod != "S256" {
		return "", apperrors.NewClientError(apperrors.CodeInvalidAccessConfig, "only the S256 code challenge method is supported")
	}

	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		return "", err
	}
	if !client.RedirectURIAllowed(req.RedirectURI) {
		return "", apperrors.NewClientError(apperrors.CodeInvalidAccessConfig, "redirect_uri is not registered for this client")
	}
	if client.QuotaExceeded() {
		return "", apperrors.NewClientError(apperrors.CodeInvalidAccessConfig, "client has reached its monthly user quota")
	}

	permissions, err := scope.Parse(req.Scope)
	if err != nil {
		return "", apperrors.NewClientError(apperrors.CodeInvalidPerm, err.Error())
	}
	if scope.Any(permissions, scope.Identity) {
		return "", apperrors.NewClientError(apperrors.CodeInvalidPerm, "scope must not include Identity")
	}
	if !client.ScopeAllowed(permissions) {
		return "", apperrors.NewClientError(apperrors.CodeInvalidPerm, "requested scope exceeds the client's registered permissions")
	}

	code, hash, err := NewCode()
	if err != nil {
		return "", fmt.Errorf("generating authorization code: %w", err)
	}

	now := time.Now().UTC()
	row := AuthorizationCode{
		ClientID:          req.ClientID,
		CodeHash:          hash,
		CodeExpiry:        now.Add(CodeTTL),
		CodeChallenge:     req.CodeChallenge,
		UserID:            req.UserID,
		PermissionsNumber: permissions,
		TokenExpiry:       now.Add(req.TokenTTL),
		RedirectURI:       req.RedirectURI,
	}
	if err := s.codes.Create(ctx, row); err != nil {
		return "", fmt.Errorf("creating authorization code: %w", err)
	}
	return code, nil
}

// Exchange redeems a single-use authorization code for a bearer token
// (spec.md §4.2 step 2, §5). The code row is deleted unconditionally before
// any of its fields are checked, so a second concurrent exchange attempt
// with the same code always fails, win or lose on the first. Attempts are
// rate-limited per client id.
func (s *Service) Exchange(ctx context.Context, req ExchangeRequest) (string, error) {
	limitKey := "exchange:" + req.ClientID

	result, err := s.limiter.Check(ctx, limitKey)
	if err != nil {
		return "", fmt.Errorf("checking exchange rate limit: %w", err)
	}
	if !result.Allowed {
		return "", apperrors.NewClientError(apperrors.CodeRateLimited, "too many exchange attempts, try again later")
	}

	hash := hashCode(req.Code)
	row, err := s.codes.Redeem(ctx, req.ClientID, hash)
	if err != nil {
		_ = s.limiter.Record(ctx, limitKey)
		return "", err
	}

	if time.Now().UTC().After(row.CodeExpiry) {
		_ = s.limiter.Record(ctx, limitKey)
		return "", apperrors.NewClientError(apperrors.CodeUnauthorized, "authorization code expired")
	}
	if row.RedirectURI != req.RedirectURI {
		_ = s.limiter.Record(ctx, limitKey)
		return "", apperrors.NewClientError(apperrors.CodeUnauthorized, "redirect_uri does not match the authorize request")
	}
	if !VerifyChallenge(row.CodeChallenge, req.CodeVerifier) {
		_ = s.limiter.Record(ctx, limitKey)
		return "", apperrors.NewClientError(apperrors.CodeUnauthorized, "code_verifier does not match the code challenge")
	}

	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		_ = s.limiter.Record(ctx, limitKey)
		return "", err
	}
	if client.IsSecure && !s.clientSvc.VerifySecret(client, req.ClientSecret) {
		_ = s.limiter.Record(ctx, limitKey)
		return "", apperrors.NewClientError(apperrors.CodeUnauthorized, "invalid client secret")
	}

	ttl := time.Until(row.TokenExpiry)
	if ttl <= 0 {
		ttl = time.Minute
	}
	clientID := req.ClientID
	token, err := xtoken.Issue(ctx, s.tokens, row.UserID, &clientID, xtoken.OAuth, row.PermissionsNumber, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("issuing oauth token: %w", err)
	}

	if err := s.clients.IncrementCurrentUsers(ctx, req.ClientID); err != nil {
		return "", fmt.Errorf("incrementing client user count: %w", err)
	}
	_ = s.limiter.Reset(ctx, limitKey)
	return token, nil
}
