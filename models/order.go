package models

import (
    "time"

    "gorm.io/gorm"
)

type Order struct {
    gorm.Model
    UserID   uint           `gorm:"not null;index" json:"user_id"`
    Products []OrderProduct `json:"products"`
}

// OrderProduct is the join row between an Order and a Product carrying
// the ordered quantity.
type OrderProduct struct {
    ID        uint      `gorm:"primaryKey" json:"id"`
    OrderID   uint      `gorm:"not null;index" json:"order_id"`
    ProductID uint      `gorm:"not null;index" json:"product_id"`
    Count     int       `gorm:"not null" json:"count"`
    CreatedAt time.Time `json:"created_at"`
}
