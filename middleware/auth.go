package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"Workshop/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const CookieName = "jwt"

// Auth verifies the session token and loads the user into ctx.Locals("user").
type Auth struct {
	DB      *gorm.DB
	Secret  []byte
	TTL     time.Duration
	Enabled bool
}

func NewAuth(db *gorm.DB, secret string, ttl time.Duration, enabled bool) *Auth {
	return &Auth{DB: db, Secret: []byte(secret), TTL: ttl, Enabled: enabled}
}

// IssueToken signs a token whose issuer is the user ID.
func (a *Auth) IssueToken(user Models.User) (string, time.Time, error) {
	expires := time.Now().Add(a.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.Itoa(int(user.ID)),
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	return token, expires, err
}

// tokenFrom reads the cookie first, then an Authorization bearer header.
func tokenFrom(c *fiber.Ctx) string {
	if cookie := c.Cookies(CookieName); cookie != "" {
		return cookie
	}
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func (a *Auth) userFromToken(raw string) (*Models.User, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	var user Models.User
	if err := a.DB.Where("id = ?", claims.Issuer).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Verify requires a logged-in user holding at least requiredPermission.
// With auth disabled every request passes.
func (a *Auth) Verify(requiredPermission int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !a.Enabled {
			return c.Next()
		}

		raw := tokenFrom(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not Logged In.",
			})
		}

		user, err := a.userFromToken(raw)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "User not found",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user", *user)

		if user.Permission >= requiredPermission && user.Permission > 0 {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Insufficient permissions to access this resource",
		})
	}
}
