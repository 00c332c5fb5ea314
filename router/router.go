package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restobar/pos/controllers"
	"github.com/restobar/pos/middlewares"
	"github.com/restobar/pos/models"
	"github.com/restobar/pos/printing"
	"github.com/restobar/pos/services"
)

// SetupRouter wires every endpoint. Role policy:
// attendants take orders on the floor, cashiers collect money,
// managers run the catalog and inventory, admin does everything.
func SetupRouter(db *gorm.DB, orderSvc *services.OrderService, sink printing.Sink) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	itemCtrl := controllers.NewItemController(db)
	categoryCtrl := controllers.NewCategoryController(db)
	supplierCtrl := controllers.NewSupplierController(db)
	storeCtrl := controllers.NewStoreController(db)
	printerCtrl := controllers.NewPrinterController(db, sink)
	orderCtrl := controllers.NewOrderController(orderSvc)
	billCtrl := controllers.NewBillController(db)
	companyCtrl := controllers.NewCompanyController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Login is rate limited, everything else sits behind the token.
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/login", userCtrl.Login)
	}

	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	// Live events for dashboards. Token comes in as ?token= on upgrade.
	auth.GET("/events/ws", controllers.EventsHandler)

	// USERS (admin manages staff)
	admin := auth.Group("/")
	admin.Use(middlewares.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/users", userCtrl.Register)
		admin.DELETE("/users/:id", userCtrl.DeleteUser)
	}
	auth.GET("/users", userCtrl.GetUsers)
	auth.GET("/users/:id", userCtrl.GetUser)
	auth.PATCH("/users/:id", userCtrl.EditUser)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.GET("/tables/:id", tableCtrl.GetTableByID)
	auth.GET("/users/:id/tables", tableCtrl.GetUserTables)
	auth.GET("/orders/:id/table", tableCtrl.GetTableByOrder)
	manage := auth.Group("/")
	manage.Use(middlewares.RequireRoles(models.RoleAdmin, models.RoleManager))
	{
		manage.POST("/tables", tableCtrl.AddTables)
		manage.POST("/tables/:id/free", tableCtrl.FreeTable)
	}

	// CATALOG (managers and admin write, everyone reads)
	auth.GET("/items", itemCtrl.GetItems)
	auth.GET("/items/count", itemCtrl.GetItemsCount)
	auth.GET("/items/low-stock", itemCtrl.GetLowStockItems)
	auth.GET("/items/:id", itemCtrl.GetItemByID)
	auth.GET("/items/:id/availability", itemCtrl.CheckAvailability)
	auth.GET("/categories/:id/items", itemCtrl.GetItemsByCategory)
	auth.GET("/stores/:id/items", itemCtrl.GetItemsByStore)
	auth.GET("/suppliers/:id/items", itemCtrl.GetItemsBySupplier)
	auth.GET("/categories", categoryCtrl.GetCategories)
	auth.GET("/categories/:id", categoryCtrl.GetCategoryByID)
	auth.GET("/suppliers", supplierCtrl.GetSuppliers)
	auth.GET("/suppliers/:id", supplierCtrl.GetSupplierByID)
	auth.GET("/stores", storeCtrl.GetStores)
	auth.GET("/stores/:id", storeCtrl.GetStoreByID)
	{
		manage.POST("/items", itemCtrl.AddItem)
		manage.PATCH("/items/:id", itemCtrl.UpdateItem)
		manage.POST("/items/:id/restock", itemCtrl.RestockItem)
		manage.DELETE("/items/:id", itemCtrl.DeleteItem)

		manage.POST("/categories", categoryCtrl.AddCategory)
		manage.PATCH("/categories/:id", categoryCtrl.UpdateCategory)
		manage.DELETE("/categories/:id", categoryCtrl.DeleteCategory)

		manage.POST("/suppliers", supplierCtrl.AddSupplier)
		manage.PATCH("/suppliers/:id", supplierCtrl.UpdateSupplier)
		manage.DELETE("/suppliers/:id", supplierCtrl.DeleteSupplier)

		manage.POST("/stores", storeCtrl.AddStore)
		manage.PATCH("/stores/:id", storeCtrl.UpdateStore)
		manage.DELETE("/stores/:id", storeCtrl.DeleteStore)

		manage.POST("/printers", printerCtrl.AddPrinter)
		manage.PATCH("/printers/:id", printerCtrl.UpdatePrinter)
		manage.DELETE("/printers/:id", printerCtrl.DeletePrinter)
		manage.POST("/printers/:id/test", printerCtrl.TestPrinter)
	}
	auth.GET("/printers", printerCtrl.GetPrinters)
	auth.GET("/printers/:id", printerCtrl.GetPrinterByID)

	// ORDERS (floor side)
	auth.POST("/orders", orderCtrl.CreateOrder)
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:id", orderCtrl.GetOrderByID)
	auth.GET("/tables/:id/order", orderCtrl.GetOrderByTable)
	auth.POST("/orders/:id/items", orderCtrl.AddItems)
	auth.POST("/orders/:id/remove", orderCtrl.RemoveItems)
	auth.POST("/orders/:id/discount", orderCtrl.ApplyDiscount)
	auth.POST("/orders/:id/facture", orderCtrl.Facture)

	// Money side is cashier territory.
	cashier := auth.Group("/")
	cashier.Use(middlewares.RequireRoles(models.RoleAdmin, models.RoleManager, models.RoleCashier))
	{
		cashier.POST("/orders/:id/pay", orderCtrl.PayOrder)
		cashier.GET("/bills", billCtrl.GetAllBills)
		cashier.GET("/bills/summary", billCtrl.GetSalesSummary)
		cashier.GET("/bills/export-pdf", billCtrl.ExportBillsPDF)
		cashier.GET("/bills/:id", billCtrl.GetBillByID)
	}

	// COMPANY PROFILE
	auth.GET("/company", companyCtrl.GetCompany)
	{
		manage.PUT("/company", companyCtrl.UpdateCompany)
	}

	return r
}
