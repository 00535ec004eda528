package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"donation_platform/internal/middleware"
	"donation_platform/internal/services"
)

// RequestValidator plugs go-playground/validator into echo
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return echo.NewHTTPError(http.StatusBadRequest, "invalid value for "+fe.Field()+": failed '"+fe.Tag()+"' check")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// bindAndValidate decodes the request into req and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

// getUserID returns the id placed in the context by the auth middleware
func getUserID(c echo.Context) uint {
	if id, ok := c.Get(middleware.UserIDKey).(uint); ok {
		return id
	}
	return 0
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// httpError maps a service error to an HTTP error
func httpError(err error) error {
	var code int
	switch services.KindOf(err) {
	case services.KindNotFound:
		code = http.StatusNotFound
	case services.KindForbidden:
		code = http.StatusForbidden
	case services.KindUnauthorized:
		code = http.StatusUnauthorized
	case services.KindDuplicate:
		code = http.StatusConflict
	case services.KindInvalidState, services.KindExceedsRemaining:
		code = http.StatusUnprocessableEntity
	case services.KindValidationFailed:
		code = http.StatusBadRequest
	default:
		log.Printf("Internal error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error())
}

// formUploads collects the files of a multipart field with their optional
// titles and descriptions, matched by position
func formUploads(c echo.Context, field string) ([]services.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}

	titles := formList(form, "titles")
	descriptions := formList(form, "descriptions")

	files := form.File[field]
	uploads := make([]services.Upload, 0, len(files))
	for i, fh := range files {
		upload := services.Upload{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
		if i < len(titles) {
			upload.Title = titles[i]
		}
		if i < len(descriptions) {
			upload.Description = descriptions[i]
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

// formList accepts both "name" and "name[]" keys
func formList(form *multipart.Form, name string) []string {
	if values := form.Value[name+"[]"]; len(values) > 0 {
		return values
	}
	return form.Value[name]
}

// requireOwnerOrAdmin passes when isOwner reports true or the requester
// holds the admin role
func requireOwnerOrAdmin(c echo.Context, auth *services.AuthService, isOwner func() (bool, error)) error {
	owner, err := isOwner()
	if err != nil {
		return httpError(err)
	}
	if owner {
		return nil
	}

	role, err := auth.CheckRole(c.Request().Context(), getUserID(c))
	if err != nil {
		return httpError(err)
	}
	if !role.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "only the creator or an administrator can do this")
	}
	return nil
}
