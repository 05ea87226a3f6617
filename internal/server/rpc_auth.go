package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// accessTokenParam carries the token for browser WebSocket clients, which
// cannot set request headers.
const accessTokenParam = "access_token"

// requireToken rejects requests that do not present secret, either as a
// Bearer Authorization header or as the access_token query parameter.
// Failures get a JSON-RPC error body so RPC clients can decode them.
//
// An empty secret rejects everything.
func requireToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			token = c.Query(accessTokenParam)
		}
		if !validToken(secret, token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"jsonrpc": "2.0",
				"error": gin.H{
					"code":    -32600,
					"message": "Unauthorized",
				},
				"id": nil,
			})
			return
		}
		c.Next()
	}
}

// validToken compares token with secret in constant time.
func validToken(secret, token string) bool {
	if secret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
