package routes

import (
	"os"
	"strings"

	"onlinebank-backend/config"
	"onlinebank-backend/controllers"
	"onlinebank-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		allowedOrigins = strings.Split(env, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/signup", controllers.Signup)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Account routes
		accounts := api.Group("/accounts")
		{
			accounts.GET("", controllers.GetAccounts)
			accounts.GET("/:id/transactions", controllers.GetAccountTransactions)
		}

		// Transfer routes
		api.POST("/transfers", controllers.Transfer)

		// Loan routes
		loans := api.Group("/loans")
		{
			loans.POST("", controllers.ApplyLoan)
			loans.GET("", controllers.GetLoans)
		}

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)

		// Admin routes
		admin := api.Group("/admin", utils.RequireRole(utils.RoleAdmin))
		{
			customers := admin.Group("/customers")
			{
				customers.GET("", controllers.GetCustomers)
				customers.GET("/:id", controllers.GetCustomer)
				customers.DELETE("/:id", controllers.DeleteCustomer)
			}

			admin.GET("/loans", controllers.GetAllLoans)
			admin.GET("/dashboard", controllers.GetAdminDashboard)
		}
	}

	return r
}
