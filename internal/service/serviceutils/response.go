package serviceutils

import (
	"github.com/labstack/echo/v4"
)

type GenericResponse struct {
	Success bool
	Message string
	Data    interface{} `json:",omitempty"`
	Error   string      `json:",omitempty"`
}

func ResponseSuccess(c echo.Context, code int, msg string, data interface{}) error {
	return c.JSON(code, GenericResponse{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// ResponseError writes a failure body. Server errors keep the generic
// message and hide err from the client.
func ResponseError(c echo.Context, code int, msg string, err error) error {
	resp := GenericResponse{
		Success: false,
		Message: msg,
	}
	if err != nil {
		resp.Error = err.Error()
		if code >= 500 {
			c.Logger().Error(err)
			resp.Error = "internal error"
		}
	}
	return c.JSON(code, resp)
}
