package models

import "gorm.io/gorm"

// Product keeps the storage-relative image key in ImgPath; the public
// URL is derived when the product is serialized for the API.
type Product struct {
    gorm.Model
    Name        string `gorm:"not null" json:"name"`
    Description string `json:"description"`
    Composition string `json:"composition"`
    // Price in the smallest currency unit.
    Price         int         `gorm:"not null" json:"price"`
    ImgPath       string      `json:"img_path"`
    NutritionalID uint        `gorm:"not null" json:"nutritional_id"`
    Nutritional   Nutritional `json:"nutritional"`

    Reviews []Review `json:"-"`
}

// Nutritional is created and updated together with its owner Product,
// always inside the same transaction.
type Nutritional struct {
    gorm.Model
    Proteins      int `json:"proteins"`
    Fats          int `json:"fats"`
    Carbohydrates int `json:"carbohydrates"`
}
