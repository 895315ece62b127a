package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"store/models"
	"store/storage"

	"gorm.io/gorm"
)

var (
	ErrImageRequired = errors.New("image file is required")
	ErrInvalidMonth  = errors.New("month must be between 1 and 12")
)

const imageFolder = "images"

// ImageUpload carries a decoded multipart file into the service layer.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

type StoreProductInput struct {
	Name          string
	Description   string
	Composition   string
	Price         int
	Proteins      int
	Fats          int
	Carbohydrates int
	Image         *ImageUpload
}

// UpdateProductInput supports both update modes. Replace selects
// full-replace semantics: every scalar field is written, zero values
// included. Otherwise only the non-nil fields are applied.
type UpdateProductInput struct {
	Replace       bool
	Name          *string
	Description   *string
	Composition   *string
	Price         *int
	Proteins      *int
	Fats          *int
	Carbohydrates *int
	Image         *ImageUpload
}

type StoreReviewInput struct {
	Body   string
	Rating int
}

type UpdateReviewInput struct {
	Replace bool
	Body    *string
	Rating  *int
}

// ProductSales is one row of the monthly best-selling aggregate. No
// ordering is imposed on the result set.
type ProductSales struct {
	ProductID  uint  `json:"product_id"`
	TotalCount int64 `json:"total_count"`
}

type ProductService struct {
	db      *gorm.DB
	storage storage.Storage
}

func NewProductService(db *gorm.DB, st storage.Storage) *ProductService {
	return &ProductService{db: db, storage: st}
}

// Store uploads the image, then creates the Nutritional row and the
// Product row in one transaction. If the transaction fails the stored
// object is removed again, so a failed call leaves nothing behind.
func (s *ProductService) Store(ctx context.Context, in StoreProductInput) (*models.Product, error) {
	if in.Image == nil {
		return nil, ErrImageRequired
	}

	key, err := s.storage.Store(ctx, in.Image.Reader, in.Image.Size, in.Image.ContentType, imageFolder)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Composition: in.Composition,
		Price:       in.Price,
		ImgPath:     key,
	}

	nutritional := models.Nutritional{
		Proteins:      in.Proteins,
		Fats:          in.Fats,
		Carbohydrates: in.Carbohydrates,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&nutritional).Error; err != nil {
			return err
		}

		product.NutritionalID = nutritional.ID
		return tx.Create(product).Error
	})
	if err != nil {
		s.removeStored(ctx, key)
		return nil, err
	}

	product.Nutritional = nutritional
	return product, nil
}

// Update applies the input to the product and its nutritional record in
// one transaction. A new image, when supplied, is uploaded first and
// removed again if the transaction fails.
func (s *ProductService) Update(ctx context.Context, product *models.Product, in UpdateProductInput) (*models.Product, error) {
	var newKey string
	if in.Image != nil {
		key, err := s.storage.Store(ctx, in.Image.Reader, in.Image.Size, in.Image.ContentType, imageFolder)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		newKey = key
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{}
		macros := map[string]interface{}{}

		if in.Replace {
			fields["name"] = strValue(in.Name)
			fields["description"] = strValue(in.Description)
			fields["composition"] = strValue(in.Composition)
			fields["price"] = intValue(in.Price)
			macros["proteins"] = intValue(in.Proteins)
			macros["fats"] = intValue(in.Fats)
			macros["carbohydrates"] = intValue(in.Carbohydrates)
		} else {
			if in.Name != nil {
				fields["name"] = *in.Name
			}
			if in.Description != nil {
				fields["description"] = *in.Description
			}
			if in.Composition != nil {
				fields["composition"] = *in.Composition
			}
			if in.Price != nil {
				fields["price"] = *in.Price
			}
			if in.Proteins != nil {
				macros["proteins"] = *in.Proteins
			}
			if in.Fats != nil {
				macros["fats"] = *in.Fats
			}
			if in.Carbohydrates != nil {
				macros["carbohydrates"] = *in.Carbohydrates
			}
		}
		if newKey != "" {
			fields["img_path"] = newKey
		}

		if len(fields) > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(fields).Error; err != nil {
				return err
			}
		}
		if len(macros) > 0 {
			if err := tx.Model(&models.Nutritional{}).Where("id = ?", product.NutritionalID).Updates(macros).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if newKey != "" {
			s.removeStored(ctx, newKey)
		}
		return nil, err
	}

	return s.Find(ctx, product.ID)
}

// StoreReview creates a review owned by the acting user against the
// given product. Single insert, no transaction needed.
func (s *ProductService) StoreReview(ctx context.Context, userID uint, product *models.Product, in StoreReviewInput) (*models.Review, error) {
	review := &models.Review{
		Body:      in.Body,
		Rating:    in.Rating,
		UserID:    userID,
		ProductID: product.ID,
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ProductService) UpdateReview(ctx context.Context, review *models.Review, in UpdateReviewInput) (*models.Review, error) {
	fields := map[string]interface{}{}
	if in.Replace {
		fields["body"] = strValue(in.Body)
		fields["rating"] = intValue(in.Rating)
	} else {
		if in.Body != nil {
			fields["body"] = *in.Body
		}
		if in.Rating != nil {
			fields["rating"] = *in.Rating
		}
	}

	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", review.ID).Updates(fields).Error; err != nil {
			return nil, err
		}
	}

	var updated models.Review
	if err := s.db.WithContext(ctx).First(&updated, review.ID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// MonthlyBestSelling sums ordered quantities per product across all
// orders created within the given month, boundaries inclusive.
func (s *ProductService) MonthlyBestSelling(ctx context.Context, year, month int) ([]ProductSales, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	rows := make([]ProductSales, 0)
	err := s.db.WithContext(ctx).
		Table("order_products").
		Select("order_products.product_id, SUM(order_products.count) AS total_count").
		Joins("JOIN orders ON orders.id = order_products.order_id").
		Where("orders.created_at BETWEEN ? AND ?", start, end).
		Where("orders.deleted_at IS NULL").
		Group("order_products.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ProductService) Find(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Nutritional").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).Preload("Nutritional").Find(&products).Error
	return products, err
}

func (s *ProductService) FindReview(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Destroy deletes the product together with its nutritional record and
// reviews in one transaction.
func (s *ProductService) Destroy(ctx context.Context, product *models.Product) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Product{}, product.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Nutritional{}, product.NutritionalID).Error
	})
}

// ImageURL derives the public URL for a product image from its stored
// relative key.
func (s *ProductService) ImageURL(product *models.Product) string {
	if product.ImgPath == "" {
		return ""
	}
	return s.storage.URL(product.ImgPath)
}

func (s *ProductService) removeStored(ctx context.Context, key string) {
	if err := s.storage.Remove(ctx, key); err != nil {
		log.Printf("orphaned object %s: %v", key, err)
	}
}

func strValue(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

func intValue(p *int) int {
	if p != nil {
		return *p
	}
	return 0
}
