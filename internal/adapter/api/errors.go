package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// JsonErrorModel is the error envelope every endpoint answers with, except the
// relay, which mirrors its upstream's shape instead.
type JsonErrorModel struct {
	Message string `json:"message"`
}

func JsonError(c echo.Context, status int, content any) error {
	data := &JsonErrorModel{Message: fmt.Sprintf("%v", content)}
	return c.JSON(status, data)
}
