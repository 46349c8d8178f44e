package routes

import (
	"github.com/gin-gonic/gin"

	"abetcrm/internal/authz"
	"abetcrm/internal/handlers"
	"abetcrm/internal/middleware"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Role        *handlers.RoleHandler
	Lead        *handlers.LeadHandler
	Contact     *handlers.ContactHandler
	Account     *handlers.AccountHandler
	Opportunity *handlers.OpportunityHandler
	Activity    *handlers.ActivityHandler
	CustomField *handlers.CustomFieldHandler
	AuditLog    *handlers.AuditLogHandler
	File        *handlers.FileHandler
	Health      *handlers.HealthHandler
}

func SetupRoutes(r *gin.Engine, jwtSecret []byte, h Handlers) *gin.Engine {
	// ---- public
	r.GET("/healthz", h.Health.Check)
	r.POST("/auth/register", h.Auth.Register)
	r.POST("/auth/login", h.Auth.Login)
	r.POST("/auth/refresh", h.Auth.Refresh)

	// ---- protected
	api := r.Group("/", middleware.AuthMiddleware(jwtSecret), middleware.Actor())
	admin := middleware.RequireRoles(authz.RoleAdmin)

	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/me", h.Auth.Me)

	// USERS
	users := api.Group("/users")
	{
		users.POST("", admin, h.User.CreateUser)
		users.GET("", admin, h.User.ListUsers)
		users.GET("/:id", h.User.GetUserByID)
		users.PUT("/:id", h.User.UpdateUser)
		users.DELETE("/:id", admin, h.User.DeleteUser)
	}

	// ROLES (admin)
	roles := api.Group("/roles", admin)
	{
		roles.POST("", h.Role.CreateRole)
		roles.GET("", h.Role.ListRoles)
		roles.GET("/:id", h.Role.GetRoleByID)
		roles.PUT("/:id", h.Role.UpdateRole)
		roles.DELETE("/:id", h.Role.DeleteRole)
	}

	// LEADS
	leads := api.Group("/leads")
	{
		leads.POST("", h.Lead.Create)
		leads.GET("", h.Lead.List)
		leads.GET("/stats", h.Lead.Stats)
		leads.GET("/:id", h.Lead.GetByID)
		leads.PUT("/:id", h.Lead.Update)
		leads.DELETE("/:id", h.Lead.Delete)
		leads.POST("/:id/convert", h.Lead.Convert)
	}

	// CONTACTS
	contacts := api.Group("/contacts")
	{
		contacts.POST("", h.Contact.Create)
		contacts.GET("", h.Contact.List)
		contacts.GET("/:id", h.Contact.GetByID)
		contacts.PUT("/:id", h.Contact.Update)
		contacts.DELETE("/:id", h.Contact.Delete)
	}

	// ACCOUNTS
	accounts := api.Group("/accounts")
	{
		accounts.POST("", h.Account.Create)
		accounts.GET("", h.Account.List)
		accounts.GET("/:id", h.Account.GetByID)
		accounts.PUT("/:id", h.Account.Update)
		accounts.DELETE("/:id", h.Account.Delete)
	}

	// OPPORTUNITIES
	opps := api.Group("/opportunities")
	{
		opps.POST("", h.Opportunity.Create)
		opps.GET("", h.Opportunity.List)
		opps.GET("/pipeline", h.Opportunity.Pipeline)
		opps.GET("/forecast", h.Opportunity.Forecast)
		opps.GET("/report.pdf", h.Opportunity.Report)
		opps.GET("/:id", h.Opportunity.GetByID)
		opps.PUT("/:id", h.Opportunity.Update)
		opps.DELETE("/:id", h.Opportunity.Delete)
	}

	// ACTIVITIES
	activities := api.Group("/activities")
	{
		activities.POST("", h.Activity.Create)
		activities.GET("", h.Activity.List)
		activities.GET("/:id", h.Activity.GetByID)
		activities.PUT("/:id", h.Activity.Update)
		activities.DELETE("/:id", h.Activity.Delete)
	}

	// CUSTOM FIELDS: reads for everyone, writes for admins
	cf := api.Group("/custom-fields")
	{
		cf.POST("", admin, h.CustomField.Create)
		cf.GET("/id/:id", h.CustomField.GetByID)
		cf.GET("/:entity", h.CustomField.ListByEntity)
		cf.PUT("/:id", admin, h.CustomField.Update)
		cf.DELETE("/:id", admin, h.CustomField.Delete)
	}

	// AUDIT (admin)
	api.GET("/audit-logs", admin, h.AuditLog.List)

	// FILES
	files := api.Group("/files")
	{
		files.POST("", h.File.Upload)
		files.GET("/:id", h.File.Get)
		files.GET("/:id/download", h.File.Download)
		files.DELETE("/:id", h.File.Delete)
	}

	return r
}
