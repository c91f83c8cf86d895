// Package captchaport is the human-verification port SPEC_FULL.md §4.7
// describes: a fixed interface signup and other abuse-prone operations
// verify a captcha token through, with a production adapter and a dev/
// no-op adapter, never reimplemented internally.
package captchaport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Verifier checks a captcha response token.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// AllowAll is the dev/no-op adapter: every token verifies, for local
// development and tests.
type AllowAll struct{}

// NewAllowAll builds an AllowAll verifier.
func NewAllowAll() *AllowAll {
	return &AllowAll{}
}

func (AllowAll) Verify(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// siteVerifyResponse is the subset of an hCaptcha/reCAPTCHA-style
// siteverify response this adapter reads.
type siteVerifyResponse struct {
	Success bool `json:"success"`
}

// HTTPVerifier is the production adapter: it posts the response token to a
// siteverify-style HTTP API (hCaptcha/reCAPTCHA shape) rather than
// reimplementing captcha scoring.
type HTTPVerifier struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewHTTPVerifier builds an HTTPVerifier against a siteverify endpoint,
// authenticated with secret.
func NewHTTPVerifier(endpoint, secret string) *HTTPVerifier {
	return &HTTPVerifier{endpoint: endpoint, secret: secret, client: &http.Client{}}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (bool, error) {
	if v.endpoint == "" {
		return false, fmt.Errorf("captchaport: no endpoint configured")
	}
	if token == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("building captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("verifying captcha: %w", err)
	}
	defer resp.Body.Close()

	var parsed siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("decoding captcha response: %w", err)
	}
	return parsed.Success, nil
}
