// Package api implements the core's external HTTP surface: three
// tagged-union POST endpoints (/read, /write, /execute) behind a pluggable
// JWT-or-API-key auth middleware, mirroring the request/response shape
// tarsy's pkg/api handlers use (ShouldBindJSON in, gin.H error bodies out)
// generalized over Komodo's {type, params} variant dispatch instead of one
// route per operation.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// UserLookup resolves a user id to the full User row the permission engine
// needs (Admin flag, per-kind All grants). database.Client satisfies it.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// ApiKeyLookup resolves an api-key header to the key/secret pair it was
// minted with.
type ApiKeyLookup interface {
	GetApiKeyUser(ctx context.Context, key string) (*models.ApiKey, error)
}

// jwtClaims is the minimal claim set a login exchange mints and Authorizer
// verifies: just the subject user id, signed with the server passkey.
type jwtClaims struct {
	jwt.RegisteredClaims
}

// Authorizer is the pluggable auth middleware spec.md calls for: it accepts
// either a bearer JWT (minted by Login, signed with Passkey) or an
// X-Api-Key/X-Api-Secret pair (minted per Action run, see pkg/state's
// ActionAdapter.IssueKey), and attaches the resolved *models.User to the
// gin context. LocalAuth bypasses both, running every request as a
// synthesized local admin — for single-operator setups with no reverse
// proxy in front of the core.
type Authorizer struct {
	Users     UserLookup
	ApiKeys   ApiKeyLookup
	Passkey   string
	ValidFor  time.Duration
	LocalAuth bool
}

const userContextKey = "komodo_user"

// Login exchanges the configured Passkey for a JWT scoped to the local
// admin user, the one bootstrapping credential every other User and
// ApiKey grant ultimately traces back to.
func (a *Authorizer) Login(c *gin.Context) {
	var body struct {
		Passkey string `json:"passkey"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Passkey == "" || body.Passkey != a.Passkey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid passkey"})
		return
	}

	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   models.ActionUserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ValidFor)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.Passkey))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jwt": signed})
}

// Middleware resolves the request's subject and stores it on the context,
// or aborts with 401 if no credential verifies.
func (a *Authorizer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.LocalAuth {
			c.Set(userContextKey, &models.User{ID: models.ActionUserID, Username: "local", Admin: true, Enabled: true})
			c.Next()
			return
		}

		if key := c.GetHeader("X-Api-Key"); key != "" {
			secret := c.GetHeader("X-Api-Secret")
			apiKey, err := a.ApiKeys.GetApiKeyUser(c.Request.Context(), key)
			if err != nil || apiKey.Secret != secret {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
				return
			}
			user, err := a.Users.GetUser(c.Request.Context(), apiKey.UserID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "api key user not found"})
				return
			}
			c.Set(userContextKey, user)
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		var claims jwtClaims
		token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			return []byte(a.Passkey), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := a.Users.GetUser(c.Request.Context(), claims.Subject)
		if err != nil {
			// The bootstrap admin subject never has a users-collection row;
			// every other subject must.
			if claims.Subject == models.ActionUserID {
				c.Set(userContextKey, &models.User{ID: models.ActionUserID, Username: "admin", Admin: true, Enabled: true})
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown subject"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// userFrom reads the subject Middleware attached.
func userFrom(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
