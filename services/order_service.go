package services

import (
	"context"
	"errors"

	"store/models"

	"gorm.io/gorm"
)

var (
	ErrEmptyOrder     = errors.New("order must contain at least one item")
	ErrInvalidCount   = errors.New("item count must be positive")
	ErrUnknownProduct = errors.New("ordered product does not exist")
)

type OrderItem struct {
	ProductID uint `json:"product_id" binding:"required"`
	Count     int  `json:"count" binding:"required,gt=0"`
}

type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// Store creates the order with its join rows in one transaction. Every
// referenced product must exist.
func (s *OrderService) Store(ctx context.Context, userID uint, items []OrderItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range items {
		if it.Count <= 0 {
			return nil, ErrInvalidCount
		}
	}

	order := &models.Order{UserID: userID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, it := range items {
			var count int64
			if err := tx.Model(&models.Product{}).Where("id = ?", it.ProductID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrUnknownProduct
			}

			row := models.OrderProduct{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Count:     it.Count,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var populated models.Order
	if err := s.db.WithContext(ctx).Preload("Products").First(&populated, order.ID).Error; err != nil {
		return nil, err
	}
	return &populated, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Products").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}
