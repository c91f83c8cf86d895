package oauthclient

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/audit"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

const bcryptCost = 12

// RegisterRequest is the JSON body for a developer-portal client
// registration.
type RegisterRequest struct {
	Name         string   `json:"name" validate:"required,min=3"`
	Description  string   `json:"description"`
	Icon         string   `json:"icon"`
	RedirectURIs []string `json:"redirect_uris" validate:"required,min=1"`
	Scopes       []string `json:"scopes" validate:"required,min=1"`
	IsSecure     bool     `json:"is_secure"`
	Quota        int      `json:"quota" validate:"required,min=1"`
}

// RegisterResponse carries the one-time client secret; callers must not
// persist or re-display it after this response.
type RegisterResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Service implements OAuth client registration and secret rotation.
type Service struct {
	store *Store
	audit *audit.Writer
}

// NewService creates an oauthclient Service. auditWriter may be nil, in
// which case mutations simply aren't logged (tests construct Service this
// way).
func NewService(store *Store, auditWriter *audit.Writer) *Service {
	return &Service{store: store, audit: auditWriter}
}

// Register creates a new Client owned by userID.
func (s *Service) Register(ctx context.Context, userID string, req RegisterRequest) (RegisterResponse, error) {
	if exists, err := s.store.NameExists(ctx, req.Name); err != nil {
		return RegisterResponse{}, fmt.Errorf("checking client name: %w", err)
	} else if exists {
		return RegisterResponse{}, apperrors.NewClientError(apperrors.CodeNameInUse, "client name already in use")
	}

	permissions, err := scope.Parse(joinScopes(req.Scopes))
	if err != nil {
		return RegisterResponse{}, apperrors.NewClientError(apperrors.CodeInvalidPerm, err.Error())
	}

	clientID, err := NewClientID()
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("generating client id: %w", err)
	}

	c := Client{
		ClientID:          clientID,
		UserID:            userID,
		Name:              req.Name,
		Description:       req.Description,
		Icon:              req.Icon,
		RedirectURIs:      req.RedirectURIs,
		PermissionsNumber: permissions,
		IsSecure:          req.IsSecure,
		Quota:             req.Quota,
	}

	resp := RegisterResponse{ClientID: clientID}

	if req.IsSecure {
		secret, err := NewClientSecret()
		if err != nil {
			return RegisterResponse{}, fmt.Errorf("generating client secret: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
		if err != nil {
			return RegisterResponse{}, fmt.Errorf("hashing client secret: %w", err)
		}
		hashStr := string(hash)
		c.SecretHash = &hashStr
		resp.ClientSecret = secret
	}

	if err := s.store.Create(ctx, c); err != nil {
		return RegisterResponse{}, fmt.Errorf("creating client: %w", err)
	}
	s.audit.Log(audit.Entry{ActorID: userID, Action: "oauthclient.register", TargetType: "oauth_client", TargetID: clientID})
	return resp, nil
}

// RegenerateSecret issues and persists a new secret for a confidential
// client, returning the new raw secret once.
func (s *Service) RegenerateSecret(ctx context.Context, userID, clientID string) (string, error) {
	c, err := s.store.GetByID(ctx, clientID)
	if err != nil {
		return "", err
	}
	if c.UserID != userID {
		return "", apperrors.NewClientError(apperrors.CodeForbidden, "not the owning user")
	}
	if !c.IsSecure {
		return "", apperrors.NewClientError(apperrors.CodeInvalidAccessConfig, "public clients have no secret")
	}

	secret, err := NewClientSecret()
	if err != nil {
		return "", fmt.Errorf("generating client secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing client secret: %w", err)
	}

	if err := s.store.UpdateSecretHash(ctx, clientID, string(hash)); err != nil {
		return "", fmt.Errorf("updating secret hash: %w", err)
	}
	s.audit.Log(audit.Entry{ActorID: userID, Action: "oauthclient.regenerate_secret", TargetType: "oauth_client", TargetID: clientID})
	return secret, nil
}

// VerifySecret checks a presented client secret against the stored hash,
// used by the token-exchange step for confidential clients (spec.md §4.2).
func (s *Service) VerifySecret(c Client, presented string) bool {
	if c.SecretHash == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*c.SecretHash), []byte(presented)) == nil
}

func joinScopes(scopes []string) string {
	out := ""
	for i, s := range scopes {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}
