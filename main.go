package main

import (
	"fmt"
	"log"
	"os"

	"onlinebank-backend/config"
	"onlinebank-backend/models"
	"onlinebank-backend/routes"
	"onlinebank-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.AuthIdentity{},
		&models.Customer{},
		&models.Account{},
		&models.Transaction{},
		&models.Loan{},
		&models.AuditLog{},
	)
}

func main() {

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	auditService := services.NewAuditService(config.DB)
	auditService.StartScheduler()

	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
