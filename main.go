package main

import (
	"log"

	"billsplit-backend/config"
	"billsplit-backend/database"
	"billsplit-backend/handlers"
	"billsplit-backend/middleware"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	api := r.Group("/api/v1")
	{
		// Users
		api.POST("/users", handlers.CreateUser)
		api.GET("/users", handlers.GetUsers)
		api.GET("/users/:id", handlers.GetUser)
		api.PUT("/users/:id", handlers.UpdateUser)

		// Bills
		api.POST("/bills", handlers.CreateBill)
		api.GET("/bills", handlers.GetBills)
		api.GET("/bills/:id", handlers.GetBill)
		api.PUT("/bills/:id", handlers.UpdateBill)
		api.POST("/bills/:id/participants", handlers.AddParticipants)
		api.DELETE("/bills/:id/participants/:uid", handlers.RemoveParticipant)
		api.DELETE("/bills/:id", handlers.DeleteBill)

		// Expenses
		api.POST("/expenses", handlers.CreateExpense)
		api.GET("/expenses/bill/:billId", handlers.GetExpensesByBill)
		api.POST("/expenses/bill/:billId/split", handlers.SplitBill)
		api.GET("/expenses/:id", handlers.GetExpense)
		api.PUT("/expenses/:id", handlers.UpdateExpense)
		api.PUT("/expenses/:id/payment", handlers.RecordPayment)
		api.DELETE("/expenses/:id", handlers.DeleteExpense)
	}

	// Start server
	port := config.AppConfig.Port
	log.Printf("🚀 %s server starting on port %s", config.AppConfig.AppName, port)

	addr := "0.0.0.0:" + port
	log.Printf("🚀 Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
