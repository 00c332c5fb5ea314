package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/restobar/pos/config"
	"github.com/restobar/pos/middlewares"
	"github.com/restobar/pos/models"
	"github.com/restobar/pos/printing"
	"github.com/restobar/pos/router"
	"github.com/restobar/pos/services"
	"github.com/restobar/pos/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}
	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	sink := &printing.NetworkSink{Timeout: config.PrintTimeout()}
	dispatcher := printing.NewDispatcher(sink, utils.ErrorLogger)
	orderSvc := services.NewOrderService(db, dispatcher)

	if path := config.LogoPath(); path != "" {
		logo, err := printing.LoadLogo(path)
		if err != nil {
			utils.ErrorLogger.Printf("Could not load receipt logo %s: %v", path, err)
		} else {
			orderSvc.Logo = logo
		}
	}

	r := router.SetupRouter(db, orderSvc, sink)

	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserActivity{},
		&models.LoginEntry{},
		&models.Table{},
		&models.Category{},
		&models.Supplier{},
		&models.Printer{},
		&models.Store{},
		&models.Item{},
		&models.ItemActivity{},
		&models.Order{},
		&models.OrderItem{},
		&models.RemovedItem{},
		&models.ClosedBill{},
		&models.ClosedBillItem{},
		&models.Company{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
