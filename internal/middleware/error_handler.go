package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Message string `json:"message"`
}

// CustomErrorHandler renders every error as {"message": "..."}. Internal
// details are logged and never returned.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" && code < http.StatusInternalServerError {
			message = msg
		} else {
			switch code {
			case http.StatusNotFound:
				message = "The resource you're looking for doesn't exist."
			case http.StatusMethodNotAllowed:
				message = "Method not allowed."
			case http.StatusRequestEntityTooLarge:
				message = "Request body too large."
			}
		}
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	var sendErr error
	if c.Request().Method == http.MethodHead {
		sendErr = c.NoContent(code)
	} else {
		sendErr = c.JSON(code, ErrorResponse{Message: message})
	}
	if sendErr != nil {
		c.Logger().Error(sendErr)
	}
}
