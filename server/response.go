package server

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/authmaster/auth/envelope"
	apperrors "github.com/kbukum/authmaster/errors"
)

// Respond writes res with the HTTP status matching its code.
func Respond[T any](c *gin.Context, res envelope.Result[T]) {
	c.JSON(res.Status(), res)
}

// RespondWithError converts err into a failure envelope. An *AppError
// carrying a 400 or 401 status keeps it; everything else becomes a 500.
func RespondWithError(c *gin.Context, err error) {
	code := envelope.CodeInternal
	if appErr, ok := apperrors.AsAppError(err); ok {
		switch appErr.HTTPStatus {
		case 400:
			code = envelope.CodeBadRequest
		case 401:
			code = envelope.CodeUnauthorized
		}
	}
	Respond(c, envelope.FromError[any](code, err))
}

// RespondOK sends a 200 success envelope wrapping data.
func RespondOK[T any](c *gin.Context, data T) {
	Respond(c, envelope.OK(data))
}
