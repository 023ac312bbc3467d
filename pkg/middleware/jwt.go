package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YashLoriya02/storage-management/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewUserCache returns the cache NewJWTMiddleware keeps looked up users in
func NewUserCache(ttl time.Duration) *ttlcache.Cache {
	c := ttlcache.NewCache()
	c.SetTTL(ttl)
	c.SkipTTLExtensionOnHit(true)
	return c
}

// tokenFrom reads the bearer token, falling back to the auth_token cookie
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	token, err := c.Cookie("auth_token")
	if err != nil {
		return ""
	}

	return token
}

// NewJWTMiddleware validates tokens issued by the account service and sets
// userID and email for the handlers. Users are looked up in the database and
// cached in users.
func NewJWTMiddleware(d *gorm.DB, users *ttlcache.Cache, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No authorization token",
				"requestID": requestID,
			})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}

			return []byte(secret), nil
		}, jwt.WithExpirationRequired())
		if err != nil {
			msg := "Authorization token invalid"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Authorization token expired. Please log in again"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     msg,
				"requestID": requestID,
			})

			zap.L().Debug("Rejected token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": requestID,
			})
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": requestID,
			})
			return
		}

		user, err := lookupUser(d, users, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "User not found",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", user.ID)
		c.Set("email", model.NormalizeEmail(user.Email))
		c.Set("accountID", user.AccountID)
		c.Set("user", user)
		c.Next()
	}
}

func lookupUser(d *gorm.DB, users *ttlcache.Cache, id string) (*model.User, error) {
	if users != nil {
		if v, err := users.Get(id); err == nil {
			return v.(*model.User), nil
		}
	}

	var user model.User
	if err := d.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}

	if users != nil {
		users.Set(id, &user)
	}

	return &user, nil
}
