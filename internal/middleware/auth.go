package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sharebite/sharebite/internal/entity"
	userRepo "github.com/sharebite/sharebite/internal/modules/user/repository"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	secret   string
}

func NewAuthMiddleware(userRepo userRepo.UserRepository) *AuthMiddleware {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   secret,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {

		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}
		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Next()
	}
}

// RequireRole loads the authenticated user, checks its role and caches the
// row in the context under "user" for downstream handlers.
func (m *AuthMiddleware) RequireRole(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.currentUser(c)
		if !ok {
			return
		}

		if user.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("%s access required", role)})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// RequireAnyRole is RequireRole for endpoints shared by multiple roles, e.g.
// pickup and delivery which both recipients and volunteers may trigger.
func (m *AuthMiddleware) RequireAnyRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.currentUser(c)
		if !ok {
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Set("user", user)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		c.Abort()
	}
}

func (m *AuthMiddleware) currentUser(c *gin.Context) (*entity.User, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		c.Abort()
		return nil, false
	}

	user, err := m.userRepo.FindByID(c.Request.Context(), userID.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		c.Abort()
		return nil, false
	}

	return user, true
}

// CurrentUser returns the user cached by a Require*Role middleware.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*entity.User)
	return user, ok
}
