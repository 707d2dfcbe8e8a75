package handler

import (
	"net/http"
	"reflect"
	"strconv"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// bindOptional accepts an empty body; anything else must be valid JSON.
func bindOptional(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindAndValidate(c, req)
}

// respondError maps a service error to its status code. Infrastructure
// failures are logged with the request id and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := apierror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("route", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(status, apierror.New(apierror.Message(err)))
}

// parseUintParam reads a positive numeric path parameter, answering 400 when
// it is malformed.
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return 0, false
	}
	return uint(v), true
}

// usuarioActual resolves the acting user: the id sent in the body wins,
// otherwise the JWT subject. Nil means the system.
func usuarioActual(c *gin.Context, bodyID *uint) *uint {
	if bodyID != nil && *bodyID != 0 {
		return bodyID
	}
	if claims := middleware.GetClaims(c); claims != nil && claims.UserID != 0 {
		id := claims.UserID
		return &id
	}
	return nil
}
