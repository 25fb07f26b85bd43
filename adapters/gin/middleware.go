package authgin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	core "github.com/connelaide/connelaide-api/core"
	jwtkit "github.com/connelaide/connelaide-api/jwt"
)

const identityKey = "auth.identity"

// AuthRequired verifies the bearer token on every request and stores the
// resulting identity in the gin context. Every verification failure maps to
// 401 without leaking the reason to the caller; the specific kind is logged.
func AuthRequired(v *jwtkit.Verifier, log logrus.FieldLogger) gin.HandlerFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			unauthorized(c)
			return
		}
		id, err := v.Verify(c.Request.Context(), raw)
		if err != nil {
			log.WithFields(logrus.Fields{
				"component": "auth",
				"reason":    reasonCode(err),
				"path":      c.FullPath(),
			}).Warn("token rejected")
			unauthorized(c)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequirePermission gates a route on a permissions-claim entry. It must run
// after AuthRequired.
func RequirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentUser(c)
		if !ok {
			unauthorized(c)
			return
		}
		if !id.HasPermission(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the verified identity stored by AuthRequired.
func CurrentUser(c *gin.Context) (*core.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*core.Identity)
	return id, ok && id != nil
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// reasonCode collapses the error taxonomy into a stable label for logs.
func reasonCode(err error) string {
	var cve *jwtkit.ClaimValidationError
	var kfe *jwtkit.KeyFetchError
	switch {
	case errors.Is(err, jwtkit.ErrMalformedToken):
		return "malformed_token"
	case errors.As(err, &kfe):
		return "key_fetch_failed"
	case errors.Is(err, jwtkit.ErrUnknownKey):
		return "unknown_key"
	case errors.Is(err, jwtkit.ErrInvalidSignature):
		return "invalid_signature"
	case errors.As(err, &cve):
		return "invalid_claim_" + cve.Claim
	default:
		return "verification_failed"
	}
}
