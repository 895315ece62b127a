package routes

import (
    "store/controllers"
    "store/middlewares"
    "store/services"

    "github.com/gin-gonic/gin"
)

func SetupRouter(productSvc *services.ProductService, orderSvc *services.OrderService) *gin.Engine {
    r := gin.Default()

    productCtl := controllers.NewProductController(productSvc)
    reviewCtl := controllers.NewReviewController(productSvc)
    statsCtl := controllers.NewStatisticsController(productSvc)
    orderCtl := controllers.NewOrderController(orderSvc)

    // Public auth routes
    auth := r.Group("/auth")
    {
        auth.POST("/register", controllers.Register)
        auth.POST("/login", controllers.Login)
    }

    products := r.Group("/products")
    {
        products.GET("/index", productCtl.Index)
        products.GET("/show/:id", productCtl.Show)

        admin := products.Group("")
        admin.Use(middlewares.AuthMiddleware(), middlewares.AdminMiddleware())
        {
            admin.POST("/store", productCtl.Store)
            admin.POST("/update/:id", productCtl.Update)
            admin.DELETE("/destroy/:id", productCtl.Destroy)
            admin.GET("/statistics/monthly", statsCtl.MonthlyBestSelling)
        }

        reviews := products.Group("")
        reviews.Use(middlewares.AuthMiddleware())
        {
            reviews.POST("/:id/reviews", reviewCtl.Store)
        }
    }

    reviews := r.Group("/reviews")
    reviews.Use(middlewares.AuthMiddleware())
    {
        reviews.POST("/update/:id", reviewCtl.Update)
    }

    orders := r.Group("/orders")
    orders.Use(middlewares.AuthMiddleware())
    {
        orders.POST("/store", orderCtl.Store)
        orders.GET("/index", orderCtl.Index)
    }

    return r
}
