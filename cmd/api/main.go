package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fitdesk/gym-api/api/swagger"
	"github.com/fitdesk/gym-api/internal/handler"
	"github.com/fitdesk/gym-api/internal/middleware"
	"github.com/fitdesk/gym-api/internal/models"
	"github.com/fitdesk/gym-api/internal/repository"
	"github.com/fitdesk/gym-api/internal/service"
	"github.com/fitdesk/gym-api/pkg/cache"
	"github.com/fitdesk/gym-api/pkg/config"
	"github.com/fitdesk/gym-api/pkg/database"
	"github.com/fitdesk/gym-api/pkg/logger"
	corsmiddleware "github.com/fitdesk/gym-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fitdesk/gym-api/pkg/middleware/requestid"
)

// @title FitDesk Gym API
// @version 1.0.0
// @description Gym management API: members, billing, classes, check-ins and workouts
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var metricsService *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsService = service.NewMetricsService()
	}

	// Redis is optional: the API degrades to uncached reads when it is down.
	var financeCache *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		financeCache = service.NewCacheService(cacheRepo, metricsService, cfg.Finance.SummaryCacheTTL, logr, cfg.Finance.CacheEnabled)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)

	authService := service.NewAuthService(userRepo, memberRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	memberService := service.NewMemberService(memberRepo, validate, logr)
	financeService := service.NewFinanceService(memberRepo, financeCache, validate, logr, service.FinanceConfig{
		SummaryCacheTTL:  cfg.Finance.SummaryCacheTTL,
		MaxPaymentMonths: cfg.Finance.MaxPaymentMonths,
	})
	classService := service.NewClassService(classRepo, userRepo, validate, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, memberRepo, classRepo, validate, logr)
	checkInService := service.NewCheckInService(checkInRepo, memberRepo, validate, logr)
	workoutService := service.NewWorkoutService(workoutRepo, memberRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	memberHandler := handler.NewMemberHandler(memberService)
	financeHandler := handler.NewFinanceHandler(financeService)
	classHandler := handler.NewClassHandler(classService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	checkInHandler := handler.NewCheckInHandler(checkInService)
	workoutHandler := handler.NewWorkoutHandler(workoutService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsService != nil {
		r.Use(middleware.Metrics(metricsService))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if metricsService != nil {
		metricsHandler := handler.NewMetricsHandler(metricsService)
		r.GET("/metrics", metricsHandler.Prometheus)
		r.GET("/metrics/summary", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin), metricsHandler.Summary)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		session := auth.Group("", middleware.JWT(authService))
		session.POST("/logout", authHandler.Logout)
		session.POST("/change-password", authHandler.ChangePassword)
		session.GET("/me", authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Deactivate)
	}

	members := api.Group("/members", middleware.JWT(authService))
	{
		staff := middleware.RequireRoles(models.RoleAdmin, models.RoleReceptionist)
		members.GET("", middleware.RBAC("ADMIN", "RECEPTIONIST", "INSTRUCTOR"), memberHandler.List)
		members.POST("", staff, memberHandler.Create)
		members.GET("/:id", middleware.RBAC("ADMIN", "RECEPTIONIST", "INSTRUCTOR", "SELF"), memberHandler.Get)
		members.PUT("/:id", staff, memberHandler.Update)
		members.DELETE("/:id", staff, memberHandler.Deactivate)

		members.GET("/:id/enrollments", middleware.RBAC("ADMIN", "RECEPTIONIST", "INSTRUCTOR", "SELF"), enrollmentHandler.ListByMember)
		members.GET("/:id/workouts", middleware.RBAC("ADMIN", "INSTRUCTOR", "SELF"), workoutHandler.ListMemberAssignments)
	}

	finance := api.Group("/finance", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin, models.RoleReceptionist))
	{
		finance.GET("/members", financeHandler.List)
		finance.GET("/members/:id", financeHandler.Get)
		finance.GET("/members/:id/payments", financeHandler.ListPayments)
		finance.POST("/members/:id/payments", financeHandler.RegisterPayment)
		finance.GET("/summary", financeHandler.Summary)
		finance.GET("/export", financeHandler.Export)
	}

	classes := api.Group("/classes", middleware.JWT(authService))
	{
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)
		classes.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleReceptionist, models.RoleInstructor), classHandler.Create)
		classes.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), classHandler.Update)
		classes.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), classHandler.Delete)
	}

	enrollments := api.Group("/enrollments", middleware.JWT(authService))
	{
		enrollments.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleReceptionist, models.RoleInstructor), enrollmentHandler.List)
		enrollments.POST("", enrollmentHandler.Enroll)
		enrollments.DELETE("", enrollmentHandler.Cancel)
	}

	checkIns := api.Group("/check-ins", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin, models.RoleReceptionist))
	{
		checkIns.POST("", checkInHandler.CheckIn)
		checkIns.GET("", checkInHandler.List)
	}

	workouts := api.Group("/workouts", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor))
	{
		workouts.GET("/templates", workoutHandler.ListTemplates)
		workouts.POST("/templates", workoutHandler.CreateTemplate)
		workouts.GET("/templates/:id", workoutHandler.GetTemplate)
		workouts.PUT("/templates/:id", workoutHandler.UpdateTemplate)
		workouts.DELETE("/templates/:id", workoutHandler.DeleteTemplate)
		workouts.POST("/assignments", workoutHandler.Assign)
		workouts.DELETE("/assignments/:id", workoutHandler.Unassign)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
