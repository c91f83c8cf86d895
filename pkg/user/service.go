package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/audit"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/pkg/captchaport"
	"github.com/ArkinSolomon/xpkg-core/pkg/mailport"
	"github.com/ArkinSolomon/xpkg-core/pkg/xtoken"
)

const (
	userIDLen      = 32
	bcryptCost     = 12
	emailCodeLen   = 32
)

// Service encapsulates user signup, login, and email-change business logic.
type Service struct {
	store   *Store
	mail    mailport.Sender
	captcha captchaport.Verifier
	audit   *audit.Writer
	limiter *auth.RateLimiter
	logger  *slog.Logger
}

// NewService creates a user Service. auditWriter may be nil, in which case
// mutations simply aren't logged; limiter may be nil, in which case login
// attempts aren't rate-limited (tests construct Service this way).
func NewService(store *Store, mail mailport.Sender, captcha captchaport.Verifier, auditWriter *audit.Writer, limiter *auth.RateLimiter, logger *slog.Logger) *Service {
	return &Service{store: store, mail: mail, captcha: captcha, audit: auditWriter, limiter: limiter, logger: logger}
}

// Signup validates and creates a new user.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (Response, error) {
	if ok, err := s.captcha.Verify(ctx, req.CaptchaToken); err != nil || !ok {
		return Response{}, apperrors.NewClientError(apperrors.CodeInternal, "captcha verification failed")
	}

	if IsProfane(req.Name) {
		return Response{}, apperrors.NewClientError(apperrors.CodeProfaneName, "name contains a blocked word")
	}

	email := normalizeEmail(req.Email)

	if exists, err := s.store.EmailExists(ctx, email); err != nil {
		return Response{}, fmt.Errorf("checking email: %w", err)
	} else if exists {
		return Response{}, apperrors.NewClientError(apperrors.CodeNameExists, "email already registered")
	}
	if exists, err := s.store.NameExists(ctx, req.Name); err != nil {
		return Response{}, fmt.Errorf("checking name: %w", err)
	} else if exists {
		return Response{}, apperrors.NewClientError(apperrors.CodeNameExists, "name already taken")
	}

	userID, err := xtoken.RandomAlnum(userIDLen)
	if err != nil {
		return Response{}, fmt.Errorf("generating user id: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return Response{}, fmt.Errorf("hashing password: %w", err)
	}

	u := User{
		UserID:       userID,
		Email:        email,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return Response{}, fmt.Errorf("creating user: %w", err)
	}

	if err := s.mail.Send(ctx, mailport.Message{To: email, Subject: "Welcome to X-Pkg", Body: "Your account has been created."}); err != nil {
		s.logger.Warn("sending welcome email", "error", err, "user_id", userID)
	}
	s.audit.Log(audit.Entry{ActorID: userID, Action: "user.signup", TargetType: "user", TargetID: userID})

	return u.ToResponse(), nil
}

// Login verifies credentials and returns the matching user. Attempts are
// rate-limited per normalized username/email (spec.md §5).
func (s *Service) Login(ctx context.Context, req LoginRequest) (User, error) {
	limitKey := "login:" + normalizeEmail(req.UsernameOrEmail)

	result, err := s.limiter.Check(ctx, limitKey)
	if err != nil {
		return User{}, fmt.Errorf("checking login rate limit: %w", err)
	}
	if !result.Allowed {
		return User{}, apperrors.NewClientError(apperrors.CodeRateLimited, "too many login attempts, try again later")
	}

	u, err := s.store.GetByNameOrEmail(ctx, req.UsernameOrEmail)
	if err != nil {
		// Compare against a fixed hash so a missing account and a wrong
		// password take the same amount of work.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$0000000000000000000000000000000000000000000000000000"), []byte(req.Password))
		_ = s.limiter.Record(ctx, limitKey)
		return User{}, apperrors.NewClientError(apperrors.CodeUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		_ = s.limiter.Record(ctx, limitKey)
		return User{}, apperrors.NewClientError(apperrors.CodeUnauthorized, "invalid credentials")
	}

	_ = s.limiter.Reset(ctx, limitKey)
	return u, nil
}

// ChangeName renames a user, enforcing the 30-day cooldown.
func (s *Service) ChangeName(ctx context.Context, userID, newName string, now time.Time) error {
	if IsProfane(newName) {
		return apperrors.NewClientError(apperrors.CodeProfaneName, "name contains a blocked word")
	}

	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.NameChangeDate != nil && now.Sub(*u.NameChangeDate) < NameChangeCooldown {
		return apperrors.NewClientError(apperrors.CodeTooSoon, "name was changed too recently")
	}
	if exists, err := s.store.NameExists(ctx, newName); err != nil {
		return fmt.Errorf("checking name: %w", err)
	} else if exists {
		return apperrors.NewClientError(apperrors.CodeNameExists, "name already taken")
	}

	if err := s.store.UpdateName(ctx, userID, newName, now); err != nil {
		return err
	}
	s.audit.Log(audit.Entry{ActorID: userID, Action: "user.change_name", TargetType: "user", TargetID: userID})
	return nil
}

// RequestEmailChange creates a pending, code-gated email change request.
// Enforces the unique-per-user constraint (spec.md §3, §5).
func (s *Service) RequestEmailChange(ctx context.Context, userID string, req RequestEmailChangeRequest, now time.Time) error {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return apperrors.NewClientError(apperrors.CodeUnauthorized, "invalid password")
	}

	newEmail := normalizeEmail(req.NewEmail)
	if exists, err := s.store.EmailExists(ctx, newEmail); err != nil {
		return fmt.Errorf("checking email: %w", err)
	} else if exists {
		return apperrors.NewClientError(apperrors.CodeNameExists, "email already registered")
	}

	code, err := xtoken.RandomAlnum(emailCodeLen)
	if err != nil {
		return fmt.Errorf("generating confirmation code: %w", err)
	}
	codeHash := hashCode(code)

	requestID, err := xtoken.RandomAlnum(userIDLen)
	if err != nil {
		return fmt.Errorf("generating request id: %w", err)
	}

	ecr := EmailChangeRequest{
		RequestID:     requestID,
		UserID:        userID,
		OriginalEmail: u.Email,
		NewEmail:      &newEmail,
		NewCodeHash:   &codeHash,
		Expiry:        now.Add(EmailChangeRequestTTL),
	}
	if err := s.store.CreateEmailChangeRequest(ctx, ecr); err != nil {
		return fmt.Errorf("creating email change request: %w", err)
	}

	if err := s.mail.Send(ctx, mailport.Message{
		To:      newEmail,
		Subject: "Confirm your new X-Pkg email",
		Body:    fmt.Sprintf("Your confirmation code is %s", code),
	}); err != nil {
		s.logger.Warn("sending email-change confirmation", "error", err, "user_id", userID)
	}
	s.audit.Log(audit.Entry{ActorID: userID, Action: "user.request_email_change", TargetType: "user", TargetID: userID})

	return nil
}

// ConfirmEmailChange redeems a pending request by its confirmation code.
func (s *Service) ConfirmEmailChange(ctx context.Context, userID, code string, now time.Time) error {
	ecr, err := s.store.GetEmailChangeRequestByUser(ctx, userID)
	if err != nil {
		return err
	}
	if now.After(ecr.Expiry) {
		_ = s.store.DeleteEmailChangeRequest(ctx, userID)
		return &apperrors.NoSuchRequestError{ID: userID, Detail: "request expired"}
	}
	if ecr.NewEmail == nil || ecr.NewCodeHash == nil || hashCode(code) != *ecr.NewCodeHash {
		return apperrors.NewClientError(apperrors.CodeUnauthorized, "invalid confirmation code")
	}

	if err := s.store.UpdateEmail(ctx, userID, *ecr.NewEmail); err != nil {
		return fmt.Errorf("applying email change: %w", err)
	}
	if err := s.store.DeleteEmailChangeRequest(ctx, userID); err != nil {
		return err
	}
	s.audit.Log(audit.Entry{ActorID: userID, Action: "user.confirm_email_change", TargetType: "user", TargetID: userID})
	return nil
}

// RevokeEmailChange cancels a pending request without applying it.
func (s *Service) RevokeEmailChange(ctx context.Context, userID string) error {
	if err := s.store.DeleteEmailChangeRequest(ctx, userID); err != nil {
		return err
	}
	s.audit.Log(audit.Entry{ActorID: userID, Action: "user.revoke_email_change", TargetType: "user", TargetID: userID})
	return nil
}

func normalizeEmail(email string) string {
	return toLowerASCII(email)
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
