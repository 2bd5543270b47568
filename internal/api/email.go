package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/cankoe/filepulse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// bindOptionalJSON binds a JSON body into dst, treating an empty body as {}.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func sendTestHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recipientsRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			respondError(c, &ApiError{Code: ErrCodeInvalidRequest, Message: "Invalid request body", err: err})
			return
		}

		used, err := controls.SendTest(c.Request.Context(), req.Recipients)
		if err != nil {
			respondError(c, err)
			return
		}
		log.Info().Str("route", "POST /api/email/test").Int("recipients", len(used)).Msg("Test email sent")
		c.JSON(http.StatusOK, gin.H{"message": "Test email sent successfully.", "recipients": used})
	}
}

func sendNowHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recipientsRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			respondError(c, &ApiError{Code: ErrCodeInvalidRequest, Message: "Invalid request body", err: err})
			return
		}

		report, used, err := controls.SendNow(c.Request.Context(), req.Recipients)
		if err != nil {
			respondError(c, err)
			return
		}
		log.Info().Str("route", "POST /api/email/send-now").Str("report", report.Path).Int("recipients", len(used)).Msg("Report sent")
		c.JSON(http.StatusOK, gin.H{"message": "Report sent successfully.", "report": report, "recipients": used})
	}
}

func listReportsHandler(reports ReportLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := reports.Reports(c.Request.Context())
		if err != nil {
			respondError(c, storageFailure("Failed to list reports", err))
			return
		}
		if list == nil {
			list = []models.Report{}
		}
		c.JSON(http.StatusOK, gin.H{"reports": list})
	}
}
