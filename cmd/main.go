package main

import (
    "store/config"
    "store/routes"
    "store/services"
    "store/storage"
)

func main() {
    config.InitDB()
    st := storage.NewS3FromEnv()

    productSvc := services.NewProductService(config.DB, st)
    orderSvc := services.NewOrderService(config.DB)

    r := routes.SetupRouter(productSvc, orderSvc)
    r.Run(":8080")
}
