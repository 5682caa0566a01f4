package handler

import (
    "errors"
    "fmt"
    "net/http"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
    v *validator.Validate
}

// NewValidator returns a Validator using json field names in messages.
func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &Validator{v: v}
}

// Validate implements echo.Validator.  The error message names the first
// failing field.
func (cv *Validator) Validate(i interface{}) error {
    err := cv.v.Struct(i)
    if err == nil {
        return nil
    }
    var ve validator.ValidationErrors
    if errors.As(err, &ve) && len(ve) > 0 {
        fe := ve[0]
        return fmt.Errorf("%s failed %s validation", fe.Field(), fe.Tag())
    }
    return err
}

// bindValid binds the request into dst and runs validation.  Failures
// are written as 400 and reported through the returned bool.
func bindValid(c echo.Context, dst any) (bool, error) {
    if err := c.Bind(dst); err != nil {
        return false, fail(c, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
    }
    if c.Echo().Validator != nil {
        if err := c.Validate(dst); err != nil {
            return false, fail(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
        }
    }
    return true, nil
}
