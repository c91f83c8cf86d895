package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusCodeNotFound(t *testing.T) {
	cases := []error{
		&NoSuchAccountError{ID: "u1", Detail: "missing"},
		&NoSuchTokenError{ID: "t1", Detail: "missing"},
		&NoSuchPackageError{ID: "p1", Detail: "missing"},
		&NoSuchRequestError{ID: "r1", Detail: "missing"},
	}
	for _, err := range cases {
		if got := StatusCode(err); got != 404 {
			t.Errorf("StatusCode(%v) = %d, want 404", err, got)
		}
	}
}

func TestStatusCodeClientFault(t *testing.T) {
	err := NewClientError(CodeBadEmail, "malformed email")
	if got := StatusCode(err); got != 400 {
		t.Errorf("StatusCode(bad_email) = %d, want 400", got)
	}
}

func TestStatusCodeSemanticDenial(t *testing.T) {
	for _, code := range []Code{CodeCantRetry, CodeTooSoon} {
		err := NewClientError(code, "denied")
		if got := StatusCode(err); got != 403 {
			t.Errorf("StatusCode(%s) = %d, want 403", code, got)
		}
	}
}

func TestStatusCodeCaptchaFailed(t *testing.T) {
	err := NewClientError(CodeCaptchaFailed, "captcha failed")
	if got := StatusCode(err); got != 418 {
		t.Errorf("StatusCode(captcha_failed) = %d, want 418", got)
	}
}

func TestStatusCodeRateLimited(t *testing.T) {
	err := NewClientError(CodeRateLimited, "too many requests")
	if got := StatusCode(err); got != 429 {
		t.Errorf("StatusCode(rate_limited) = %d, want 429", got)
	}
}

func TestStatusCodeInvalidListError(t *testing.T) {
	err := &InvalidListError{Code: CodeSelfDep, Detail: "package depends on itself"}
	if got := StatusCode(err); got != 400 {
		t.Errorf("StatusCode(self_dep) = %d, want 400", got)
	}
	if got := CodeOf(err); got != CodeSelfDep {
		t.Errorf("CodeOf() = %q, want %q", got, CodeSelfDep)
	}
}

func TestStatusCodeVersionNotExist(t *testing.T) {
	err := NewClientError(CodeVersionNotExist, "no such version")
	if got := StatusCode(err); got != 404 {
		t.Errorf("StatusCode(version_not_exist) = %d, want 404", got)
	}
}

func TestStatusCodeUnrecognizedIsInternal(t *testing.T) {
	err := fmt.Errorf("some wrapped database error: %w", errors.New("boom"))
	if got := StatusCode(err); got != 500 {
		t.Errorf("StatusCode(unrecognized) = %d, want 500", got)
	}
	if got := CodeOf(err); got != CodeInternal {
		t.Errorf("CodeOf(unrecognized) = %q, want %q", got, CodeInternal)
	}
}

func TestErrorsAsUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("looking up package: %w", &NoSuchPackageError{ID: "xpkg/foo", Detail: "not found"})

	var target *NoSuchPackageError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should unwrap a wrapped NoSuchPackageError")
	}
	if target.ID != "xpkg/foo" {
		t.Errorf("unwrapped ID = %q, want %q", target.ID, "xpkg/foo")
	}
	if got := StatusCode(wrapped); got != 404 {
		t.Errorf("StatusCode(wrapped) = %d, want 404", got)
	}
}
