package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/services"
	"github.com/SAP-F-2025/diploma-service/internal/utils"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type HandlerManager struct {
	degreeHandler     *DegreeHandler
	authHandler       *AuthHandler
	universityHandler *UniversityHandler
	studentHandler    *StudentHandler
	templateHandler   *TemplateHandler
	authMiddleware    *JWTAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	jwtSecret string,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		degreeHandler:     NewDegreeHandler(serviceManager.Degree(), serviceManager.Ingest(), validator, logger),
		authHandler:       NewAuthHandler(serviceManager.Account(), validator, logger),
		universityHandler: NewUniversityHandler(serviceManager.University(), validator, logger),
		studentHandler:    NewStudentHandler(serviceManager.Linking(), userRepo, logger),
		templateHandler:   NewTemplateHandler(serviceManager.Template(), validator, logger),
		authMiddleware:    NewJWTAuthMiddleware(jwtSecret),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", hm.authHandler.RegisterStudent)
		auth.POST("/register-admin", hm.authHandler.RegisterAdmin)
		auth.GET("/verify", hm.authHandler.ConfirmEmail)
		auth.POST("/login", hm.authHandler.Login)
	}

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Degree routes - university admins only
		degrees := authed.Group("/degrees")
		degrees.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleUniversityAdmin))
		{
			degrees.POST("", hm.degreeHandler.CreateDegree)
			degrees.POST("/bulk", hm.degreeHandler.BulkUpload)
			degrees.GET("", hm.degreeHandler.ListDegrees)
			degrees.GET("/export", hm.degreeHandler.ExportDegrees)
			degrees.GET("/:id", hm.degreeHandler.GetDegree)
			degrees.PUT("/:id", hm.degreeHandler.UpdateDegree)
			degrees.DELETE("/:id", hm.degreeHandler.DeleteDegree)
			degrees.POST("/:id/file", hm.degreeHandler.AttachCredential)

			// Batch confirmation workflow
			degrees.POST("/confirm", hm.degreeHandler.ConfirmDegrees)
			degrees.POST("/revert", hm.degreeHandler.RevertDegrees)
		}

		// Template routes - university admins only
		templates := authed.Group("/templates")
		templates.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleUniversityAdmin))
		{
			templates.POST("", hm.templateHandler.CreateTemplate)
			templates.GET("", hm.templateHandler.ListTemplates)
			templates.PUT("/:id", hm.templateHandler.UpdateTemplate)
			templates.DELETE("/:id", hm.templateHandler.DeleteTemplate)
		}

		// University routes
		universities := authed.Group("/universities")
		{
			universities.GET("", hm.universityHandler.ListUniversities)
			universities.GET("/:id", hm.universityHandler.GetUniversity)

			// Onboarding and invitations - platform admins only
			universities.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RolePlatformAdmin), hm.universityHandler.RegisterUniversity)
			universities.POST("/invite", hm.authMiddleware.RequireRoleMiddleware(models.RolePlatformAdmin), hm.universityHandler.InviteAdmin)
		}

		// Student routes - students only
		students := authed.Group("/students")
		students.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
		{
			students.GET("/me/claimable", hm.studentHandler.GetClaimableDegrees)
			students.GET("/me/degrees", hm.studentHandler.GetMyDegrees)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "diploma-service",
		})
	})
}
