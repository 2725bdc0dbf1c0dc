package middleware

import (
	"encoding/json"
	"time"

	"Workshop/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// LogConfig holds configuration for the request logging middleware
type LogConfig struct {
	// Logger receives one entry per request. Defaults to the logrus standard logger.
	Logger *logrus.Logger
	// Include request body for non-GET requests
	IncludeBody bool
	// Include user ID when the auth middleware loaded one
	IncludeUserID bool
	// Skip logging for specific paths
	SkipPaths []string
}

// LogData contains the fields written for each request
type LogData struct {
	Method        string
	Path          string
	URL           string
	Status        int
	Latency       time.Duration
	IP            string
	UserAgent     string
	RequestID     string
	RequestBody   interface{}
	Error         string
	UserID        uint
	Username      string
	ContentLength int
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Logger:        logrus.StandardLogger(),
		IncludeBody:   false,
		IncludeUserID: true,
		SkipPaths:     []string{"/health"},
	}
}

// Fields converts the request data into logrus fields.
func (d LogData) Fields() logrus.Fields {
	fields := logrus.Fields{
		"method":         d.Method,
		"path":           d.Path,
		"url":            d.URL,
		"status":         d.Status,
		"latency_ms":     float64(d.Latency.Microseconds()) / 1000,
		"ip":             d.IP,
		"user_agent":     d.UserAgent,
		"request_id":     d.RequestID,
		"content_length": d.ContentLength,
	}
	if d.RequestBody != nil {
		fields["request_body"] = d.RequestBody
	}
	if d.UserID != 0 {
		fields["user_id"] = d.UserID
		fields["username"] = d.Username
	}
	if d.Error != "" {
		fields["error"] = d.Error
	}
	return fields
}

// LoggingMiddleware writes one structured entry per request. A request ID is
// taken from X-Request-ID or generated, and echoed back on the response.
func LoggingMiddleware(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return func(c *fiber.Ctx) error {
		if slices.Contains(cfg.SkipPaths, c.Path()) {
			return c.Next()
		}

		start := time.Now()
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, requestID)

		var requestBody interface{}
		if cfg.IncludeBody && c.Method() != fiber.MethodGet {
			if body := c.Body(); len(body) > 0 {
				var parsed interface{}
				if json.Unmarshal(body, &parsed) == nil {
					requestBody = parsed
				} else {
					requestBody = string(body)
				}
			}
		}

		err := c.Next()

		data := LogData{
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			RequestID:     requestID,
			RequestBody:   requestBody,
			ContentLength: len(c.Response().Body()),
		}
		if err != nil {
			data.Error = err.Error()
			// Handler errors are turned into responses by the error handler later.
			if fiberErr, ok := err.(*fiber.Error); ok {
				data.Status = fiberErr.Code
			} else {
				data.Status = fiber.StatusInternalServerError
			}
		}
		if cfg.IncludeUserID {
			if user, ok := c.Locals("user").(Models.User); ok {
				data.UserID = user.ID
				data.Username = user.Name
			}
		}

		entry := cfg.Logger.WithFields(data.Fields())
		switch {
		case data.Status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		case data.Status >= fiber.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
		return err
	}
}
