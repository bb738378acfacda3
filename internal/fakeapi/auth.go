package fakeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

var errInvalidToken = errors.New("invalid token")

// Context keys for operator information
const (
	ContextKeyEmail = "email"
	ContextKeyRole  = "role"
)

// jwtMiddleware rejects requests without a valid bearer token. Public
// routes are matched on their route pattern.
func (s *Server) jwtMiddleware(skip map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skip[c.Request.Method+" "+c.FullPath()] {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("MISSING_TOKEN", "Authorization header is required"))
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid authorization header format"))
			return
		}
		tokenString := authHeader[len(bearerPrefix):]

		s.mu.Lock()
		secret, now := s.secret, s.now
		s.mu.Unlock()

		// tokens are issued on the server clock, so they expire on it too
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errInvalidToken
			}
			return secret, nil
		}, jwt.WithTimeFunc(now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("TOKEN_EXPIRED", "Access token has expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid access token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid token claims"))
			return
		}

		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		c.Set(ContextKeyEmail, email)
		c.Set(ContextKeyRole, role)

		if c.Request.Method == http.MethodDelete && role == RoleViewer {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden("Insufficient permissions"))
			return
		}

		c.Next()
	}
}

// IssueToken signs a token for email the way the login route does
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(email)
}

func (s *Server) issueTokenLocked(email string) string {
	u := s.users[email]
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"nome":  u.nome,
		"role":  u.role,
		"exp":   s.now().Add(time.Hour).Unix(),
	}
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return tok
}

type loginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("invalid body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[req.Email]
	if !ok || u.senha != req.Senha {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Credenciais inválidas"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.issueTokenLocked(req.Email)})
}
