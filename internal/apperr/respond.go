package apperr

import (
	"errors"
	"log"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Respond writes err as a JSON error body. Internal errors are logged here,
// once, with their cause.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	if appErr.Kind == KindInternal {
		log.Printf("❌ [%s %s] internal error: %v", c.Request.Method, c.FullPath(), err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(HTTPStatus(appErr.Kind), gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}

// FromBinding converts a gin binding failure into a validation error.
// Failed "required" rules are reported together as missing fields.
func FromBinding(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidInput.Wrap(err).WithMessage("invalid request body: %v", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fe.Field()+" ("+fe.Tag()+")")
	}
	if len(missing) > 0 {
		return MissingFields(missing...).Wrap(err)
	}
	return ErrInvalidInput.Wrap(err).WithMessage("invalid fields: %s", strings.Join(invalid, ", "))
}

// RegisterJSONFieldNames makes validation errors name fields by their JSON
// key instead of the Go field name.
func RegisterJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// RequireUUIDParams answers 404 for routes whose path parameters are not
// UUIDs, so malformed ids never reach the store.
func RequireUUIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			if _, err := uuid.Parse(c.Param(name)); err != nil {
				Respond(c, NotFound("not_found", name+" does not exist"))
				return
			}
		}
		c.Next()
	}
}
