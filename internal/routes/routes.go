package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/soinechankit/Soinech-CRM/internal/handlers"
	"github.com/soinechankit/Soinech-CRM/internal/middleware"
	"github.com/soinechankit/Soinech-CRM/internal/models"
)

type Handlers struct {
	Lead         *handlers.LeadHandler
	Deal         *handlers.DealHandler
	FollowUp     *handlers.FollowUpHandler
	Task         *handlers.TaskHandler
	Catalog      *handlers.CatalogHandler
	Proposal     *handlers.ProposalHandler
	Report       *handlers.ReportHandler
	Notification *handlers.NotificationHandler
	Profile      *handlers.ProfileHandler
	Integrations *handlers.IntegrationsHandler
	Health       gin.HandlerFunc
	// Identity runs after authentication on every protected route; optional.
	Identity     gin.HandlerFunc
}

// Limits throttles the expensive endpoints; a nil limiter disables it.
type Limits struct {
	Import    *middleware.RateLimiter
	Broadcast *middleware.RateLimiter
}

func throttle(l *middleware.RateLimiter) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return l.Middleware()
}

func SetupRoutes(r *gin.Engine, h Handlers, limits Limits, secret []byte, issuer string) *gin.Engine {
	elevated := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	// ---- public
	if h.Health != nil {
		r.GET("/healthz", h.Health)
	}
	r.POST("/integrations/telegram/webhook", h.Integrations.Webhook)

	// ---- protected
	r.Use(middleware.AuthMiddleware(secret, issuer))
	if h.Identity != nil {
		r.Use(h.Identity)
	}

	r.POST("/integrations/telegram/link-code", h.Integrations.RequestTelegramLink)

	// PROFILES
	r.GET("/me", h.Profile.Me)
	r.PUT("/me/preferences", h.Profile.UpdatePreferences)
	r.GET("/profiles", elevated, h.Profile.List)

	// LEADS
	leads := r.Group("/leads")
	{
		leads.POST("", h.Lead.Create)
		leads.GET("", h.Lead.List)
		leads.GET("/export", h.Lead.Export)
		leads.POST("/import", throttle(limits.Import), h.Lead.Import)
		leads.GET("/:id", h.Lead.GetByID)
		leads.PUT("/:id", h.Lead.Update)
		leads.DELETE("/:id", h.Lead.Delete)
		leads.POST("/:id/status", h.Lead.UpdateStatus)
		leads.POST("/:id/assign", elevated, h.Lead.Assign)
		leads.POST("/:id/convert", h.Lead.ConvertToDeal)
		leads.GET("/:id/notes", h.Lead.ListNotes)
		leads.POST("/:id/notes", h.Lead.AddNote)
	}

	// DEALS
	r.GET("/pipeline", h.Deal.Pipeline)
	r.GET("/pipeline/stages", h.Deal.Stages)
	deals := r.Group("/deals")
	{
		deals.POST("", h.Deal.Create)
		deals.GET("", h.Deal.List)
		deals.GET("/:id", h.Deal.GetByID)
		deals.PUT("/:id", h.Deal.Update)
		deals.DELETE("/:id", h.Deal.Delete)
		deals.POST("/:id/stage", h.Deal.Stage)
		deals.POST("/:id/advance", h.Deal.Advance)
		deals.POST("/:id/retreat", h.Deal.Retreat)
	}

	// FOLLOW-UPS
	fu := r.Group("/follow-ups")
	{
		fu.POST("", h.FollowUp.Create)
		fu.GET("", h.FollowUp.List)
		fu.GET("/upcoming", h.FollowUp.Upcoming)
		fu.GET("/:id", h.FollowUp.GetByID)
		fu.PUT("/:id", h.FollowUp.Update)
		fu.DELETE("/:id", h.FollowUp.Delete)
		fu.POST("/:id/complete", h.FollowUp.Complete)
		fu.POST("/:id/cancel", h.FollowUp.Cancel)
	}

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.POST("", h.Task.Create)
		tasks.GET("", h.Task.GetAll)
		tasks.GET("/:id", h.Task.GetByID)
		tasks.PUT("/:id", h.Task.Update)
		tasks.DELETE("/:id", h.Task.Delete)
		tasks.POST("/:id/status", h.Task.ChangeStatus)
		tasks.POST("/:id/assign", h.Task.Assign)
	}

	// SERVICE CATALOG (reads for everyone, writes for admins)
	svc := r.Group("/services")
	{
		svc.GET("", h.Catalog.List)
		svc.GET("/:id", h.Catalog.GetByID)
		svc.POST("", adminOnly, h.Catalog.Create)
		svc.PUT("/:id", adminOnly, h.Catalog.Update)
		svc.DELETE("/:id", adminOnly, h.Catalog.Delete)
	}

	// PROPOSALS
	props := r.Group("/proposals")
	{
		props.POST("", h.Proposal.Create)
		props.GET("", h.Proposal.List)
		props.GET("/:id", h.Proposal.GetByID)
		props.PUT("/:id", h.Proposal.Update)
		props.DELETE("/:id", h.Proposal.Delete)
		props.POST("/:id/status", h.Proposal.UpdateStatus)
		props.GET("/:id/pdf", h.Proposal.PDF)
	}

	// REPORTS
	rep := r.Group("/reports")
	{
		rep.GET("/dashboard", h.Report.Dashboard)
		rep.GET("/summary", elevated, h.Report.Summary)
		rep.GET("/export.xlsx", elevated, h.Report.ExportXLSX)
	}

	// NOTIFICATIONS
	n := r.Group("/notifications")
	{
		n.GET("", h.Notification.ListMine)
		n.POST("/read-all", h.Notification.MarkAllRead)
		n.POST("/:id/read", h.Notification.MarkRead)
		n.POST("/send", adminOnly, throttle(limits.Broadcast), h.Notification.Send)
	}

	return r
}
