package auth

import "github.com/gin-gonic/gin"

const identityContextKey = "auth_identity"

// SetIdentity attaches the authenticated identity to the request context.
func SetIdentity(c *gin.Context, identity *Identity) {
	c.Set(identityContextKey, identity)
}

// IdentityFromContext returns the identity set by the auth middleware. Only
// valid on routes behind that middleware.
func IdentityFromContext(c *gin.Context) *Identity {
	if v, ok := c.Get(identityContextKey); ok {
		if identity, ok := v.(*Identity); ok {
			return identity
		}
	}
	return &Identity{}
}
