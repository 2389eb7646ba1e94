package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultSiteverifyEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// siteverify responses are small; cap the read anyway.
const maxSiteverifyBody = 1 << 16

type RecaptchaConfig struct {
	Secret   string
	Endpoint string
	Timeout  time.Duration
}

// CaptchaVerdict is the outcome of a token check. Reason is set when the
// check ran and the token was rejected, and for configuration problems that
// make a check impossible.
type CaptchaVerdict struct {
	OK     bool
	Reason string
}

// RecaptchaVerifier checks reCAPTCHA v2 tokens with Google's siteverify
// endpoint. It gates the unauthenticated support form.
type RecaptchaVerifier struct {
	cfg        RecaptchaConfig
	httpClient *http.Client
	log        *zap.Logger
}

func NewRecaptchaVerifier(cfg RecaptchaConfig, log *zap.Logger) *RecaptchaVerifier {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultSiteverifyEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RecaptchaVerifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks a checkbox token against siteverify. The returned error is
// reserved for transport and protocol failures; a rejected token comes back
// as a verdict with OK false and the reason codes joined.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (CaptchaVerdict, error) {
	if v == nil || strings.TrimSpace(v.cfg.Secret) == "" {
		return CaptchaVerdict{Reason: "not_configured"}, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return CaptchaVerdict{Reason: "missing_token"}, nil
	}

	form := url.Values{
		"secret":   {v.cfg.Secret},
		"response": {token},
	}
	if ip := strings.TrimSpace(remoteIP); ip != "" {
		form.Set("remoteip", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return CaptchaVerdict{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return CaptchaVerdict{}, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CaptchaVerdict{}, fmt.Errorf("siteverify http %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSiteverifyBody))
	if err != nil {
		return CaptchaVerdict{}, fmt.Errorf("siteverify read: %w", err)
	}
	var out siteverifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return CaptchaVerdict{}, fmt.Errorf("siteverify decode: %w", err)
	}

	if out.Success {
		return CaptchaVerdict{OK: true}, nil
	}

	reason := "verification_failed"
	if len(out.ErrorCodes) > 0 {
		reason = strings.Join(out.ErrorCodes, ",")
	}
	v.log.Debug("recaptcha token rejected",
		zap.String("reason", reason),
		zap.String("hostname", out.Hostname))
	return CaptchaVerdict{Reason: reason}, nil
}
