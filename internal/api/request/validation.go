package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/edvin/haas/internal/model"
)

var validate = validator.New()

// Herd names end up in pg_ctlcluster arguments and on-disk paths.
var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,39}$`)

func init() {
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return nameRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("lsn", func(fl validator.FieldLevel) bool {
		_, err := model.ParseLSN(fl.Field().String())
		return err == nil
	})
	validate.RegisterValidation("action", func(fl validator.FieldLevel) bool {
		_, err := model.ParseActionKind(fl.Field().String())
		return err == nil
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return Validate(v)
}

// Validate runs struct validation on an already decoded value.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
