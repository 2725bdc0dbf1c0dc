package Controllers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"Workshop/Maintenance"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	validate   = validator.New()
	translator ut.Translator
)

func init() {
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		logrus.WithError(err).Warn("failed to register validator translations")
	}

	// Report JSON field names rather than Go field names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validationMessage returns a readable summary of every failed rule, or "".
func validationMessage(input interface{}) string {
	err := validate.Struct(input)
	if err == nil {
		return ""
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		messages = append(messages, fieldError.Translate(translator))
	}
	return strings.Join(messages, "; ")
}

// parseBody decodes and validates the request body into input. On failure it
// has already written the 400 response and returns false.
func parseBody(ctx *fiber.Ctx, input interface{}) (bool, error) {
	if err := ctx.BodyParser(input); err != nil {
		return false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if message := validationMessage(input); message != "" {
		return false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": message,
		})
	}
	return true, nil
}

func parseID(ctx *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("ID must be a valid number")
	}
	return uint(id), nil
}

func invalidID(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Invalid ID",
		"message": "ID must be a valid number",
	})
}

// pagination reads limit/offset with a default limit and a hard ceiling.
func pagination(ctx *fiber.Ctx, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > 1000 {
		limit = 1000
	}
	offset, err := strconv.Atoi(ctx.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// maintenanceError maps the Maintenance sentinel errors onto HTTP statuses.
func maintenanceError(ctx *fiber.Ctx, summary string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, Maintenance.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, Maintenance.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, Maintenance.ErrMaterialInUse), errors.Is(err, gorm.ErrDuplicatedKey):
		status = fiber.StatusConflict
	default:
		logrus.WithError(err).WithField("path", ctx.Path()).Error(summary)
	}
	return ctx.Status(status).JSON(fiber.Map{
		"error":   summary,
		"message": err.Error(),
	})
}

func databaseError(ctx *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Duplicate record",
			"message": err.Error(),
		})
	}
	logrus.WithError(err).WithField("path", ctx.Path()).Error("database error")
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Database error",
		"message": err.Error(),
	})
}
