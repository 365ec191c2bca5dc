package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/security"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/httpsecurity"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/ratelimiter"
)

// Headers left out of the pattern scan: their values routinely contain
// wildcards such as */* that look like SQL comment markers
var unscannedHeaders = map[string]bool{
	"accept":          true,
	"accept-encoding": true,
	"accept-language": true,
}

// SecurityMiddleware adapts the framework-neutral security pipeline to gin.
// Rejections are written from the pipeline's response; on success the
// security and rate-limit headers are set before the handler runs.
//
// Only JSON bodies are rewritten: the handler reads the sanitized form.
// Form, multipart and other text bodies are scanned as a single string and
// rejected on a pattern match, but when allowed they reach the handler
// byte-for-byte as sent. Handlers accepting those content types must
// sanitize the fields they use.
func SecurityMiddleware(pipeline *security.Middleware, maxBodySize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		req, raw, err := toSecurityRequest(c, maxBodySize)
		if err != nil {
			models.HandleError(c, models.NewAppErrorWithDetails(
				models.ErrorCodeMalformedJSON,
				"Malformed JSON body",
				err.Error(),
			), log)
			return
		}

		result := pipeline.ProcessRequest(c.Request.Context(), req)
		if !result.Allowed {
			var headers map[string]string
			if result.Response != nil {
				headers = result.Response.Headers
			}
			writeHeaders(c, pipeline.ProcessResponse(headers))

			if result.Response != nil {
				c.AbortWithStatusJSON(result.Response.StatusCode, result.Response.Body)
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": result.Error})
			return
		}

		if result.RateLimit != nil {
			writeHeaders(c, ratelimiter.Headers(*result.RateLimit, time.Now()))
		}
		writeHeaders(c, pipeline.ProcessResponse(nil))

		sanitized := result.SanitizedRequest
		if isJSON(c) && sanitized != nil && sanitized.HasBody() {
			body, err := json.Marshal(sanitized.Body)
			if err != nil {
				models.HandleError(c, err, log)
				return
			}
			setBody(c, body)
		} else if raw != nil {
			setBody(c, raw)
		}

		c.Next()
	}
}

// toSecurityRequest builds the normalized request. The body is read in full,
// up to maxBodySize+1 bytes so that oversized bodies are still reported by
// size; the raw bytes are returned so the body can be restored.
func toSecurityRequest(c *gin.Context, maxBodySize int64) (*httpsecurity.Request, []byte, error) {
	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		lower := strings.ToLower(name)
		if unscannedHeaders[lower] {
			continue
		}
		headers[lower] = strings.Join(values, ", ")
	}

	req := &httpsecurity.Request{
		Method:  c.Request.Method,
		URL:     c.Request.URL.RequestURI(),
		Headers: headers,
		IP:      c.ClientIP(),
		UserID:  c.GetString(ContextKeyAPIKeyID),
	}

	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return req, nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize+1))
	_ = c.Request.Body.Close()
	if err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 {
		return req, raw, nil
	}

	if _, ok := headers["content-length"]; !ok || int64(len(raw)) > maxBodySize {
		headers["content-length"] = strconv.Itoa(len(raw))
	}

	// Truncated or non-JSON bodies are scanned as text and restored untouched
	if !isJSON(c) || int64(len(raw)) > maxBodySize {
		req.Body = string(raw)
		return req, raw, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var body interface{}
	if err := decoder.Decode(&body); err != nil {
		return nil, nil, err
	}
	req.Body = body

	return req, raw, nil
}

func isJSON(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.ContentType()), "json")
}

func setBody(c *gin.Context, body []byte) {
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	c.Request.ContentLength = int64(len(body))
	c.Request.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

func writeHeaders(c *gin.Context, headers map[string]string) {
	for name, value := range headers {
		c.Header(name, value)
	}
}
