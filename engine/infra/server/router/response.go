package router

import (
	"github.com/gin-gonic/gin"
)

const HeaderRequestID = "X-Request-ID"

// Response is the success envelope for every JSON endpoint.
type Response struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

// ListResponse carries one page of items plus the cursor for the next page.
type ListResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func RespondWithData(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Data: data, Message: "Success"})
}

func RespondWithMessage(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Data: data, Message: message})
}
