package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cankoe/filepulse/internal/frequency"
	"github.com/cankoe/filepulse/internal/scheduler"
	"github.com/cankoe/filepulse/internal/settings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// formValue accepts either a JSON string or a bare literal and keeps its
// text, leaving number validation to the settings package.
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = formValue(s)
		return nil
	}
	*v = formValue(strings.TrimSpace(string(b)))
	return nil
}

type thresholdsRequest struct {
	Green formValue `json:"green"`
	Amber formValue `json:"amber"`
	Red   formValue `json:"red"`
}

type recipientsRequest struct {
	Recipients string `json:"recipients"`
}

type statusResponse struct {
	scheduler.Status
	Summary string `json:"summary"`
}

func newStatusResponse(st scheduler.Status) statusResponse {
	return statusResponse{Status: st, Summary: st.String()}
}

func getThresholdsHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := controls.Thresholds(c.Request.Context())
		if err != nil {
			respondError(c, storageFailure("Failed to load thresholds", err))
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func saveThresholdsHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req thresholdsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, &ApiError{Code: ErrCodeInvalidRequest, Message: "Invalid request body", err: err})
			return
		}

		t, err := controls.SaveThresholds(c.Request.Context(), string(req.Green), string(req.Amber), string(req.Red))
		if err != nil {
			var ve *settings.ValidationError
			if !errors.As(err, &ve) {
				err = storageFailure("Failed to save thresholds", err)
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func getRecipientsHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"recipients": nonNil(controls.Recipients())})
	}
}

func setRecipientsHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recipientsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, &ApiError{Code: ErrCodeInvalidRequest, Message: "Invalid request body", err: err})
			return
		}
		emails, err := controls.SetRecipients(req.Recipients)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"recipients": emails})
	}
}

func startSchedulerHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settings.ScheduleRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			respondError(c, &ApiError{Code: ErrCodeInvalidRequest, Message: "Invalid request body", err: err})
			return
		}
		st, err := controls.StartScheduler(req)
		if err != nil {
			respondError(c, err)
			return
		}
		log.Info().Str("route", "POST /api/scheduler/start").Str("frequency", st.Frequency).Msg("Scheduler started")
		c.JSON(http.StatusOK, newStatusResponse(st))
	}
}

func stopSchedulerHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, newStatusResponse(controls.StopScheduler()))
	}
}

func schedulerStatusHandler(controls Controls) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, newStatusResponse(controls.Status()))
	}
}

type frequencyOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func listFrequenciesHandler() gin.HandlerFunc {
	opts := make([]frequencyOption, 0, len(frequency.All()))
	for _, f := range frequency.All() {
		opts = append(opts, frequencyOption{Value: f.Slug(), Label: f.String()})
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"frequencies": opts})
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
