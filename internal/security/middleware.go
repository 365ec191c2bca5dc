package security

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/httpsecurity"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/metrics"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/ratelimiter"
)

// Client-facing messages
const (
	ErrSecurityValidationFailed = "Security validation failed"
	ErrRateLimitExceeded        = "Rate limit exceeded"
	ErrCORSNotAllowed           = "CORS origin not allowed"
	ErrRequestValidationFailed  = "Request validation failed"
	ErrDisallowedContent        = "Request contains disallowed content"
)

// AnonymousClient is the client id used when a request has neither IP nor user
const AnonymousClient = "anonymous"

// Config toggles each stage of the pipeline
type Config struct {
	EnableRateLimit         bool
	EnableCORS              bool
	EnableRequestValidation bool
	EnableSecurityHeaders   bool
	AllowedOrigins          []string
}

// DefaultConfig enables every stage with the local development origins
func DefaultConfig() Config {
	return Config{
		EnableRateLimit:         true,
		EnableCORS:              true,
		EnableRequestValidation: true,
		EnableSecurityHeaders:   true,
		AllowedOrigins:          []string{"https://localhost:8080", "https://127.0.0.1:8080"},
	}
}

// Response is a rejection to be written back by the HTTP adapter
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       interface{}
}

// Result is the outcome of ProcessRequest. When Allowed is false either
// Response or Error is set; adapters answer 403 with Error when Response is nil.
type Result struct {
	Allowed          bool
	Response         *Response
	Error            string
	SanitizedRequest *httpsecurity.Request
	// RateLimit is set when the rate-limit stage ran against a configured operation
	RateLimit *ratelimiter.Result
}

// RateLimiter is the quota check the pipeline depends on
type RateLimiter interface {
	Check(operation, clientID string) ratelimiter.Result
}

// RequestValidator validates and sanitizes a normalized request
type RequestValidator interface {
	ValidateRequest(req *httpsecurity.Request) httpsecurity.ValidationResult
}

// Middleware runs rate limiting, CORS and request validation in that order,
// stopping at the first stage that rejects
type Middleware struct {
	config    Config
	limiter   RateLimiter
	validator RequestValidator
	recorder  metrics.Recorder
	log       *logger.Logger
	now       func() time.Time
}

// New creates a Middleware. A nil validator uses httpsecurity defaults and a
// nil logger discards output.
func New(config Config, limiter RateLimiter, validator RequestValidator, log *logger.Logger, recorder metrics.Recorder) *Middleware {
	if validator == nil {
		validator = httpsecurity.NewValidator()
	}
	if log == nil {
		log = logger.NewNop()
	}
	if config.EnableRateLimit && limiter == nil {
		limiter = ratelimiter.New(nil)
	}

	return &Middleware{
		config:    config,
		limiter:   limiter,
		validator: validator,
		recorder:  recorder,
		log:       log.Component("security"),
		now:       time.Now,
	}
}

// Config returns the stage configuration
func (m *Middleware) Config() Config {
	return m.config
}

// ProcessRequest runs req through the enabled stages. It never panics: any
// failure inside a stage is logged and reported as a generic rejection.
func (m *Middleware) ProcessRequest(ctx context.Context, req *httpsecurity.Request) (result Result) {
	log := m.log.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Security middleware error",
				zap.Any("panic", r),
				zap.String("method", safeMethod(req)),
			)
			result = Result{Allowed: false, Error: ErrSecurityValidationFailed}
		}
	}()

	if req == nil {
		log.Error("Security middleware received nil request")
		return Result{Allowed: false, Error: ErrSecurityValidationFailed}
	}

	var rateLimit *ratelimiter.Result
	if m.config.EnableRateLimit {
		res := m.checkRateLimit(req)
		if !res.Allowed {
			log.Warn("Request rate limited",
				zap.String("client_id", ClientID(req)),
				zap.String("operation", OperationFor(req.Method, req.URL)),
			)
			return res
		}
		rateLimit = res.RateLimit
	}

	if m.config.EnableCORS {
		res := m.validateCORS(req)
		if !res.Allowed {
			log.Warn("CORS origin rejected", zap.String("origin", req.Header("Origin")))
			return res
		}
	}

	if m.config.EnableRequestValidation {
		res := m.validateRequest(req)
		if !res.Allowed {
			return res
		}
		req = res.SanitizedRequest
	}

	return Result{Allowed: true, SanitizedRequest: req, RateLimit: rateLimit}
}

// ProcessResponse returns headers with the fixed security headers applied
func (m *Middleware) ProcessResponse(headers map[string]string) map[string]string {
	if !m.config.EnableSecurityHeaders {
		return headers
	}
	return httpsecurity.ApplySecurityHeaders(headers)
}

func (m *Middleware) checkRateLimit(req *httpsecurity.Request) Result {
	operation := OperationFor(req.Method, req.URL)
	check := m.limiter.Check(operation, ClientID(req))
	m.record(metrics.StageRateLimit, check.Allowed)

	if check.Allowed {
		if !check.Configured {
			return Result{Allowed: true}
		}
		return Result{Allowed: true, RateLimit: &check}
	}

	now := m.now()
	headers := ratelimiter.Headers(check, now)
	if _, ok := headers[ratelimiter.HeaderRetryAfter]; !ok {
		headers[ratelimiter.HeaderRetryAfter] = strconv.Itoa(ratelimiter.RetryAfterSeconds(check.ResetTime, now))
	}

	body := map[string]interface{}{"error": ErrRateLimitExceeded}
	if !check.ResetTime.IsZero() {
		body["resetTime"] = check.ResetTime.UnixMilli()
	}

	return Result{
		Allowed:   false,
		RateLimit: &check,
		Response: &Response{
			StatusCode: http.StatusTooManyRequests,
			Headers:    headers,
			Body:       body,
		},
	}
}

// validateCORS only rejects requests that name an origin outside the allow-list
func (m *Middleware) validateCORS(req *httpsecurity.Request) Result {
	origin := req.Header("Origin")
	if origin == "" {
		return Result{Allowed: true}
	}

	if !httpsecurity.ValidateCorsOrigin(origin, m.config.AllowedOrigins) {
		m.record(metrics.StageCORS, false)
		return Result{
			Allowed: false,
			Response: &Response{
				StatusCode: http.StatusForbidden,
				Headers:    map[string]string{},
				Body:       map[string]interface{}{"error": ErrCORSNotAllowed},
			},
		}
	}

	m.record(metrics.StageCORS, true)
	return Result{Allowed: true}
}

func (m *Middleware) validateRequest(req *httpsecurity.Request) Result {
	validation := m.validator.ValidateRequest(req)
	m.record(metrics.StageValidation, validation.IsValid)

	if !validation.IsValid {
		// Pattern matches are logged in full but reported generically
		m.log.Warn("Security validation failed", zap.Strings("errors", validation.Errors))

		details := make([]interface{}, 0, len(validation.Errors))
		generic := false
		for _, msg := range validation.Errors {
			if httpsecurity.IsPatternViolation(msg) {
				if !generic {
					details = append(details, ErrDisallowedContent)
					generic = true
				}
				continue
			}
			details = append(details, msg)
		}

		return Result{
			Allowed: false,
			Response: &Response{
				StatusCode: http.StatusBadRequest,
				Headers:    map[string]string{},
				Body: map[string]interface{}{
					"error":   ErrRequestValidationFailed,
					"details": httpsecurity.SanitizeResponse(details),
				},
			},
		}
	}

	sanitized := *req
	if req.HasBody() {
		sanitized.Body = validation.SanitizedData
	}
	return Result{Allowed: true, SanitizedRequest: &sanitized}
}

func (m *Middleware) record(stage string, allowed bool) {
	if m.recorder != nil {
		m.recorder.RecordDecision(stage, allowed)
	}
}

// OperationFor maps a request onto a rate-limit operation: POST to a wallet
// path creates a wallet, GET on a token path searches tokens and everything
// else counts as a balance check.
func OperationFor(method, url string) string {
	path := strings.ToLower(url)
	method = strings.ToUpper(method)

	switch {
	case strings.Contains(path, "/wallet") && method == http.MethodPost:
		return ratelimiter.OperationWalletCreation
	case strings.Contains(path, "/token") && method == http.MethodGet:
		return ratelimiter.OperationTokenSearch
	default:
		return ratelimiter.OperationBalanceCheck
	}
}

// ClientID is the rate-limit identity of req: its IP, else its user, else anonymous
func ClientID(req *httpsecurity.Request) string {
	switch {
	case req.IP != "":
		return req.IP
	case req.UserID != "":
		return req.UserID
	default:
		return AnonymousClient
	}
}

func safeMethod(req *httpsecurity.Request) string {
	if req == nil {
		return ""
	}
	return req.Method
}
