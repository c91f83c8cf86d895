// Package apperrors defines the repository-raised error family and the
// HTTP-edge translation from those errors (and the compact machine codes
// validators produce) to response status codes.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ArkinSolomon/xpkg-core/internal/httpserver"
)

// Code is one of the compact machine codes surfaced to clients.
type Code string

const (
	CodeBadEmail            Code = "bad_email"
	CodeBadLen              Code = "bad_len"
	CodeInvalidIDOrRepo     Code = "invalid_id_or_repo"
	CodeNameInUse           Code = "name_in_use"
	CodeIDInUse             Code = "id_in_use"
	CodeInvalidAccessConfig Code = "invalid_access_config"
	CodePlatSupp            Code = "plat_supp"
	CodeNoFile              Code = "no_file"
	CodeBadDepTuple         Code = "bad_dep_tuple"
	CodeInvalidDepSel       Code = "invalid_dep_sel"
	CodeSelfDep             Code = "self_dep"
	CodeDepOrSelfInc        Code = "dep_or_self_inc"
	CodeTooManyTokens       Code = "too_many_tokens"
	CodeInvalidPerm         Code = "invalid_perm"
	CodeExtraArr            Code = "extra_arr"
	CodeBadAfterDate        Code = "bad_after_date"
	CodeBadBeforeDate       Code = "bad_before_date"
	CodeBadDateCombo        Code = "bad_date_combo"
	CodeShortDiff           Code = "short_diff"
	CodeLongDiff            Code = "long_diff"
	CodeCantRetry           Code = "cant_retry"
	CodeVersionExists       Code = "version_exists"
	CodeVersionNotExist     Code = "version_not_exist"
	CodeTooSoon             Code = "too_soon"
	CodeNoChange            Code = "no_change"
	CodeNameExists          Code = "name_exists"
	CodeProfaneName         Code = "profane_name"
	CodeInvalidName         Code = "invalid_name"
	CodeInvalidVersion      Code = "invalid_version"
	CodeInvalidSelection    Code = "invalid_selection"

	// Supplemental codes for the status classes spec.md §7 names but does
	// not enumerate a machine code for.
	CodeCaptchaFailed Code = "captcha_failed"
	CodeRateLimited   Code = "rate_limited"
	CodeUnauthorized  Code = "unauthorized"
	CodeForbidden     Code = "forbidden"
	CodeInternal      Code = "internal_error"
)

// ClientError is a categorical validation failure carrying a machine code.
// It is the error type validators raise; the message is safe to surface to
// the client verbatim.
type ClientError struct {
	Code    Code
	Message string
}

func (e *ClientError) Error() string { return string(e.Code) + ": " + e.Message }

// NewClientError constructs a ClientError with the code's name as its message
// when no more specific message is needed.
func NewClientError(code Code, message string) *ClientError {
	return &ClientError{Code: code, Message: message}
}

// NoSuchAccountError is raised by a repository when a user/author lookup
// finds no matching row.
type NoSuchAccountError struct {
	ID     string
	Detail string
}

func (e *NoSuchAccountError) Error() string {
	return fmt.Sprintf("no such account %q: %s", e.ID, e.Detail)
}

// NoSuchTokenError is raised when a token lookup by id finds no matching row
// or the row has expired.
type NoSuchTokenError struct {
	ID     string
	Detail string
}

func (e *NoSuchTokenError) Error() string {
	return fmt.Sprintf("no such token %q: %s", e.ID, e.Detail)
}

// NoSuchPackageError is raised when a package or version lookup finds no
// matching row.
type NoSuchPackageError struct {
	ID     string
	Detail string
}

func (e *NoSuchPackageError) Error() string {
	return fmt.Sprintf("no such package %q: %s", e.ID, e.Detail)
}

// NoSuchRequestError is raised when an authorization code or email-change
// request lookup finds no matching row.
type NoSuchRequestError struct {
	ID     string
	Detail string
}

func (e *NoSuchRequestError) Error() string {
	return fmt.Sprintf("no such request %q: %s", e.ID, e.Detail)
}

// InvalidListError is raised by dependency/incompatibility list validation
// (duplicate ids, self-reference, overlap between the two lists, malformed
// selections).
type InvalidListError struct {
	Code   Code
	Detail string
}

func (e *InvalidListError) Error() string { return string(e.Code) + ": " + e.Detail }

// StatusCode maps an error raised anywhere in the request path to the HTTP
// status spec.md §7 assigns it: 400 for client faults, 401 for auth/
// ownership, 403 for semantic denial, 404 for absent resource, 418 for
// failed human-check, 429 for rate limits, 500 for internal errors.
func StatusCode(err error) int {
	var (
		noAccount *NoSuchAccountError
		noToken   *NoSuchTokenError
		noPackage *NoSuchPackageError
		noRequest *NoSuchRequestError
		invList   *InvalidListError
		clientErr *ClientError
	)

	switch {
	case errors.As(err, &noAccount), errors.As(err, &noToken), errors.As(err, &noPackage), errors.As(err, &noRequest):
		return 404
	case errors.As(err, &invList):
		return statusForCode(invList.Code)
	case errors.As(err, &clientErr):
		return statusForCode(clientErr.Code)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return 500
	default:
		return 500
	}
}

// statusForCode classifies a single machine code into its HTTP status.
func statusForCode(code Code) int {
	switch code {
	case CodeVersionNotExist:
		return 404
	case CodeCaptchaFailed:
		return 418
	case CodeRateLimited:
		return 429
	case CodeUnauthorized:
		return 401
	case CodeForbidden, CodeCantRetry, CodeTooSoon:
		return 403
	case CodeInternal:
		return 500
	default:
		return 400
	}
}

// Code returns the machine code carried by err, or CodeInternal if err is
// not one of the recognized apperrors types.
func CodeOf(err error) Code {
	var (
		invList   *InvalidListError
		clientErr *ClientError
	)
	switch {
	case errors.As(err, &invList):
		return invList.Code
	case errors.As(err, &clientErr):
		return clientErr.Code
	default:
		return CodeInternal
	}
}

// Write translates err to its HTTP status and machine code and writes it as
// the response. Unrecognized errors log at error level (with the request's
// logger, which already carries the request id) and return a bare 500 with
// no leaked detail, per spec.md §7's "unhandled errors" policy.
func Write(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusCode(err)
	code := CodeOf(err)

	if status == 500 {
		logger.Error("unhandled error", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, string(CodeInternal), "an internal error occurred")
		return
	}

	httpserver.RespondError(w, status, string(code), err.Error())
}
