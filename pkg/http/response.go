package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every API body. RequestID echoes the X-Request-ID the
// request ran under.
type Envelope struct {
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Page is the data of list endpoints; Total counts the rows returned.
type Page struct {
	Rows  interface{} `json:"rows"`
	Total int         `json:"total"`
}

func DataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{
		Status:    status,
		Message:   http.StatusText(status),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		Data:      data,
	})
}

func ListResponse(c echo.Context, rows interface{}, total int) error {
	return DataResponse(c, http.StatusOK, Page{Rows: rows, Total: total})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func CreatedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusCreated, data)
}

// BadRequestResponse carries validation failures as the data.
func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

// AppErrorResponse writes err with the status of its kind. Errors outside
// the domain taxonomy become a 500 without their text.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = FromDomainError(err)
	}
	if appErr == nil {
		return DataResponse(c, http.StatusInternalServerError, []*AppError{
			NewAppError("ERR_INTERNAL", "", "internal error", http.StatusInternalServerError),
		})
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
