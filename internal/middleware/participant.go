package middleware

import (
	"net/http"
	"strings"

	"flagtest_backend/internal/service"
	"flagtest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ParticipantProofFromRequest reads the proof cookie. A malformed or absent
// cookie yields ok=false; callers treat that as an unauthenticated request.
func ParticipantProofFromRequest(c *gin.Context) (service.ParticipantProof, bool) {
	raw, err := c.Cookie(util.ParticipantCookie)
	if err != nil || raw == "" {
		return service.ParticipantProof{}, false
	}

	idx := strings.Index(raw, ":")
	if idx <= 0 || idx == len(raw)-1 {
		return service.ParticipantProof{}, false
	}
	return service.ParticipantProof{
		SessionID: raw[:idx],
		Token:     raw[idx+1:],
	}, true
}

// SetParticipantProof refreshes the proof cookie after a join or a token
// rotation.
func SetParticipantProof(c *gin.Context, sessionID, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(util.ParticipantCookie, sessionID+":"+token,
		util.ParticipantCookieMaxAge, "/", "", false, true)
}

// AnonymousID returns the per-evaluation anonymous id cookie, or "" when the
// browser has none yet.
func AnonymousID(c *gin.Context, evaluationID string) string {
	raw, err := c.Cookie(util.AnonymousCookiePrefix + evaluationID)
	if err != nil {
		return ""
	}
	return raw
}

func SetAnonymousID(c *gin.Context, evaluationID, anonymousID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(util.AnonymousCookiePrefix+evaluationID, anonymousID,
		util.AnonymousCookieMaxAge, "/", "", false, true)
}
