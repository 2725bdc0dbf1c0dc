package Controllers

import (
	"errors"
	"strings"
	"time"

	"Workshop/Models"
	"Workshop/middleware"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB   *gorm.DB
	Auth *middleware.Auth
}

func NewUserController(db *gorm.DB, auth *middleware.Auth) *UserController {
	return &UserController{DB: db, Auth: auth}
}

// Login checks the credentials and sets the jwt cookie
// POST /api/login
func (c *UserController) Login(ctx *fiber.Ctx) error {
	var req Models.LoginRequest
	if ok, err := parseBody(ctx, &req); !ok {
		return err
	}

	var user Models.User
	if err := c.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
		}
		return databaseError(ctx, err)
	}
	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(req.Password)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	token, expires, err := c.Auth.IssueToken(user)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Could not log in",
			"message": err.Error(),
		})
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
	})

	return ctx.JSON(fiber.Map{
		"message": "success",
		"token":   token,
		"data":    user,
	})
}

// Logout expires the jwt cookie
// POST /api/logout
func (c *UserController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return ctx.JSON(fiber.Map{"message": "success"})
}

// CurrentUser returns the user loaded by the auth middleware
// GET /api/users/me
func (c *UserController) CurrentUser(ctx *fiber.Ctx) error {
	user, ok := ctx.Locals("user").(Models.User)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not Logged In."})
	}
	return ctx.JSON(fiber.Map{"data": user})
}

// RegisterUser creates a login. Admin only.
// POST /api/users
func (c *UserController) RegisterUser(ctx *fiber.Ctx) error {
	var req Models.RegisterRequest
	if ok, err := parseBody(ctx, &req); !ok {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := c.DB.Model(&Models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return databaseError(ctx, err)
	}
	if count > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Could not hash password",
			"message": err.Error(),
		})
	}

	user := Models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Password:   hash,
		Permission: req.Permission,
	}
	if err := c.DB.Create(&user).Error; err != nil {
		return databaseError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"data":    user,
	})
}
