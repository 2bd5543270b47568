package api

import (
	"context"

	"github.com/cankoe/filepulse/internal/deliveries"
	"github.com/cankoe/filepulse/internal/models"
	"github.com/cankoe/filepulse/internal/scheduler"
	"github.com/cankoe/filepulse/internal/settings"

	"github.com/gin-gonic/gin"
)

// Controls are the settings operations the HTTP API exposes.
// *settings.Surface implements it.
type Controls interface {
	Thresholds(ctx context.Context) (models.Thresholds, error)
	SaveThresholds(ctx context.Context, green, amber, red string) (models.Thresholds, error)
	Recipients() []string
	SetRecipients(text string) ([]string, error)
	StartScheduler(req settings.ScheduleRequest) (scheduler.Status, error)
	StopScheduler() scheduler.Status
	Status() scheduler.Status
	SendTest(ctx context.Context, text string) ([]string, error)
	SendNow(ctx context.Context, text string) (models.Report, []string, error)
}

// ReportLister lists available reports, newest first.
type ReportLister interface {
	Reports(ctx context.Context) ([]models.Report, error)
}

// DeliveryLog is the admin view of recorded send attempts.
type DeliveryLog interface {
	List(ctx context.Context, f deliveries.Filter, page, limit int) ([]models.Delivery, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// NewRouter returns a gin engine with recovery and request logging.
func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	return r
}

// RegisterRoutes registers the user-level settings, scheduler and email routes.
func RegisterRoutes(r *gin.Engine, controls Controls, reports ReportLister, userAPIKey string) {
	group := r.Group("/api", APIKeyMiddleware(userAPIKey, false))
	{
		group.GET("/thresholds", getThresholdsHandler(controls))
		group.PUT("/thresholds", saveThresholdsHandler(controls))

		group.GET("/recipients", getRecipientsHandler(controls))
		group.PUT("/recipients", setRecipientsHandler(controls))

		group.POST("/scheduler/start", startSchedulerHandler(controls))
		group.POST("/scheduler/stop", stopSchedulerHandler(controls))
		group.GET("/scheduler/status", schedulerStatusHandler(controls))

		group.POST("/email/test", sendTestHandler(controls))
		group.POST("/email/send-now", sendNowHandler(controls))

		group.GET("/frequencies", listFrequenciesHandler())
		group.GET("/reports", listReportsHandler(reports))
	}
}
