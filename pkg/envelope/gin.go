package envelope

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/i18n"
)

// Success writes a code 0 envelope with HTTP 200.
func Success(c *gin.Context, data any) {
	SuccessMessage(c, apperr.ErrorCodeSuccess.Message(), data)
}

// SuccessMessage writes a code 0 envelope with a custom message.
func SuccessMessage(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    CodeSuccess,
		"message": message,
		"data":    data,
	})
}

// Fail writes appErr as an envelope. The HTTP status comes from the error
// code: business failures travel as 200, authentication failures as 401.
// Messages left at their code default are localized from the request locale.
func Fail(c *gin.Context, appErr *apperr.AppError) {
	if appErr == nil {
		appErr = apperr.New(apperr.ErrorCodeInternal)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusOK
	}
	msg := appErr.Message
	if ec := appErr.ErrorCode(); ec != nil && msg == ec.Message() {
		msg = i18n.Default().Message(c.Request.Context(), ec.Code(), msg)
	}
	body := gin.H{
		"code":    appErr.BusinessCode,
		"message": msg,
		"data":    nil,
	}
	if len(appErr.Suggestions) > 0 {
		body["data"] = gin.H{"errors": appErr.Suggestions}
	}
	c.JSON(status, body)
}

// HandleError converts any error into an envelope response.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	Fail(c, apperr.FromError(err))
}

// Abort writes the failure envelope and stops the handler chain.
func Abort(c *gin.Context, appErr *apperr.AppError) {
	Fail(c, appErr)
	c.Abort()
}
