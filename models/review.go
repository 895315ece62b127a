package models

import "gorm.io/gorm"

type Review struct {
    gorm.Model
    Body      string `gorm:"not null" json:"body"`
    Rating    int    `gorm:"not null" json:"rating"`
    UserID    uint   `gorm:"not null;index" json:"user_id"`
    ProductID uint   `gorm:"not null;index" json:"product_id"`
}
