package service

import (
	"reflect"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var dueAtLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

// parseDueAt accepts RFC 3339 or a zone-less local form interpreted as UTC.
func parseDueAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dueAtLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func sanitizeText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(policy.Sanitize(value))
}

// isPlainText reports whether data sniffs as text rather than a binary payload.
func isPlainText(data []byte) bool {
	for mime := mimetype.Detect(data); mime != nil; mime = mime.Parent() {
		if mime.Is("text/plain") {
			return true
		}
	}
	return false
}
