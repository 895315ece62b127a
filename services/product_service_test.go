package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"store/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One named in-memory database per test; shared cache keeps every
	// pooled connection on the same database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Nutritional{},
		&models.Product{},
		&models.Review{},
		&models.Order{},
		&models.OrderProduct{},
	))
	return db
}

type fakeStorage struct {
	objects   map[string][]byte
	removed   []string
	failStore bool
	seq       int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Store(_ context.Context, r io.Reader, _ int64, _, folder string) (string, error) {
	if f.failStore {
		return "", errors.New("storage unavailable")
	}
	f.seq++
	key := fmt.Sprintf("%s/object-%d.jpg", folder, f.seq)
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	return key, nil
}

func (f *fakeStorage) URL(path string) string {
	return "https://cdn.test/" + path
}

func (f *fakeStorage) Remove(_ context.Context, path string) error {
	delete(f.objects, path)
	f.removed = append(f.removed, path)
	return nil
}

func testImage() *ImageUpload {
	return &ImageUpload{
		Reader:      bytes.NewReader([]byte("fake image bytes")),
		Size:        16,
		ContentType: "image/jpeg",
	}
}

func storeInput() StoreProductInput {
	return StoreProductInput{
		Name:          "Carbonara",
		Description:   "Pasta with bacon",
		Composition:   "pasta, eggs, bacon",
		Price:         1250,
		Proteins:      23,
		Fats:          31,
		Carbohydrates: 44,
		Image:         testImage(),
	}
}

func TestProductService_Store(t *testing.T) {
	db := setupTestDB(t)
	fs := newFakeStorage()
	svc := NewProductService(db, fs)

	product, err := svc.Store(context.Background(), storeInput())
	require.NoError(t, err)
	require.NotZero(t, product.ID)

	var nutritional models.Nutritional
	require.NoError(t, db.First(&nutritional, product.NutritionalID).Error)
	assert.Equal(t, 23, nutritional.Proteins)
	assert.Equal(t, 31, nutritional.Fats)
	assert.Equal(t, 44, nutritional.Carbohydrates)

	assert.Equal(t, "Carbonara", product.Name)
	assert.Equal(t, 1250, product.Price)
	assert.Contains(t, fs.objects, product.ImgPath)
	assert.Equal(t, "https://cdn.test/"+product.ImgPath, svc.ImageURL(product))

	// The returned product carries the created association without a
	// second read.
	assert.Equal(t, nutritional.ID, product.Nutritional.ID)
	assert.Equal(t, 23, product.Nutritional.Proteins)
}

func TestProductService_Store_NoImage(t *testing.T) {
	svc := NewProductService(setupTestDB(t), newFakeStorage())

	in := storeInput()
	in.Image = nil
	_, err := svc.Store(context.Background(), in)
	assert.ErrorIs(t, err, ErrImageRequired)
}

func TestProductService_Store_StorageFailure(t *testing.T) {
	db := setupTestDB(t)
	fs := newFakeStorage()
	fs.failStore = true
	svc := NewProductService(db, fs)

	_, err := svc.Store(context.Background(), storeInput())
	require.Error(t, err)

	var products, nutritionals int64
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, db.Model(&models.Nutritional{}).Count(&nutritionals).Error)
	assert.Zero(t, products)
	assert.Zero(t, nutritionals)
}

func TestProductService_Store_InsertFailureRollsBack(t *testing.T) {
	db := setupTestDB(t)
	fs := newFakeStorage()
	svc := NewProductService(db, fs)

	// Dropping the products table makes the second insert of the
	// transaction fail after the nutritional insert succeeded.
	require.NoError(t, db.Migrator().DropTable(&models.Product{}))

	_, err := svc.Store(context.Background(), storeInput())
	require.Error(t, err)

	var nutritionals int64
	require.NoError(t, db.Model(&models.Nutritional{}).Count(&nutritionals).Error)
	assert.Zero(t, nutritionals, "nutritional insert must be rolled back")

	assert.Len(t, fs.removed, 1, "stored image must be compensated")
	assert.Empty(t, fs.objects)
}

func seedProduct(t *testing.T, svc *ProductService) *models.Product {
	t.Helper()
	product, err := svc.Store(context.Background(), storeInput())
	require.NoError(t, err)
	return product
}

func TestProductService_Update_FullReplace(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, newFakeStorage())
	product := seedProduct(t, svc)

	name := "Bolognese"
	description := ""
	composition := "pasta, beef"
	price := 1400
	proteins := 30
	fats := 12
	carbohydrates := 55

	updated, err := svc.Update(context.Background(), product, UpdateProductInput{
		Replace:       true,
		Name:          &name,
		Description:   &description,
		Composition:   &composition,
		Price:         &price,
		Proteins:      &proteins,
		Fats:          &fats,
		Carbohydrates: &carbohydrates,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bolognese", updated.Name)
	assert.Equal(t, "", updated.Description, "full replace writes zero values too")
	assert.Equal(t, "pasta, beef", updated.Composition)
	assert.Equal(t, 1400, updated.Price)
	assert.Equal(t, 30, updated.Nutritional.Proteins)
	assert.Equal(t, 12, updated.Nutritional.Fats)
	assert.Equal(t, 55, updated.Nutritional.Carbohydrates)
}

func TestProductService_Update_PartialPatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, newFakeStorage())
	product := seedProduct(t, svc)

	price := 999
	updated, err := svc.Update(context.Background(), product, UpdateProductInput{
		Price: &price,
	})
	require.NoError(t, err)

	assert.Equal(t, 999, updated.Price)
	assert.Equal(t, product.Name, updated.Name)
	assert.Equal(t, product.Description, updated.Description)
	assert.Equal(t, product.Composition, updated.Composition)
	assert.Equal(t, product.Nutritional.Proteins, updated.Nutritional.Proteins)
	assert.Equal(t, product.Nutritional.Fats, updated.Nutritional.Fats)
	assert.Equal(t, product.Nutritional.Carbohydrates, updated.Nutritional.Carbohydrates)
}

func TestProductService_Update_NewImage(t *testing.T) {
	db := setupTestDB(t)
	fs := newFakeStorage()
	svc := NewProductService(db, fs)
	product := seedProduct(t, svc)

	updated, err := svc.Update(context.Background(), product, UpdateProductInput{
		Image: testImage(),
	})
	require.NoError(t, err)

	assert.NotEqual(t, product.ImgPath, updated.ImgPath)
	assert.Contains(t, fs.objects, updated.ImgPath)
}

func TestProductService_Update_StorageFailure(t *testing.T) {
	db := setupTestDB(t)
	fs := newFakeStorage()
	svc := NewProductService(db, fs)
	product := seedProduct(t, svc)

	fs.failStore = true
	name := "Bolognese"
	price := 1400
	_, err := svc.Update(context.Background(), product, UpdateProductInput{
		Name:  &name,
		Price: &price,
		Image: testImage(),
	})
	require.Error(t, err)

	// A failed image upload must leave both rows untouched.
	current, findErr := svc.Find(context.Background(), product.ID)
	require.NoError(t, findErr)
	assert.Equal(t, product.Name, current.Name)
	assert.Equal(t, product.Price, current.Price)
	assert.Equal(t, product.ImgPath, current.ImgPath)
	assert.Equal(t, product.Nutritional.Proteins, current.Nutritional.Proteins)
}

func TestProductService_Update_TxFailureCompensatesImage(t *testing.T) {
	db := setupTestDB(t)
	fs := newFakeStorage()
	svc := NewProductService(db, fs)
	product := seedProduct(t, svc)

	// Dropping the nutritionals table makes the second update of the
	// transaction fail after the product update and the image upload
	// both succeeded.
	require.NoError(t, db.Migrator().DropTable(&models.Nutritional{}))

	name := "Bolognese"
	proteins := 30
	_, err := svc.Update(context.Background(), product, UpdateProductInput{
		Name:     &name,
		Proteins: &proteins,
		Image:    testImage(),
	})
	require.Error(t, err)

	var current models.Product
	require.NoError(t, db.First(&current, product.ID).Error)
	assert.Equal(t, product.Name, current.Name, "product update must be rolled back")
	assert.Equal(t, product.ImgPath, current.ImgPath)

	require.Len(t, fs.removed, 1, "newly stored image must be compensated")
	assert.NotEqual(t, product.ImgPath, fs.removed[0])
	assert.NotContains(t, fs.objects, fs.removed[0])
}

func TestProductService_StoreReview(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, newFakeStorage())
	product := seedProduct(t, svc)

	review, err := svc.StoreReview(context.Background(), 42, product, StoreReviewInput{
		Body:   "rich and filling",
		Rating: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, uint(42), review.UserID)
	assert.Equal(t, product.ID, review.ProductID)
	assert.Equal(t, 5, review.Rating)
}

func TestProductService_UpdateReview(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, newFakeStorage())
	product := seedProduct(t, svc)

	review, err := svc.StoreReview(context.Background(), 42, product, StoreReviewInput{
		Body:   "rich and filling",
		Rating: 5,
	})
	require.NoError(t, err)

	t.Run("partial patch keeps the body", func(t *testing.T) {
		rating := 3
		updated, err := svc.UpdateReview(context.Background(), review, UpdateReviewInput{Rating: &rating})
		require.NoError(t, err)
		assert.Equal(t, "rich and filling", updated.Body)
		assert.Equal(t, 3, updated.Rating)
	})

	t.Run("full replace writes both fields", func(t *testing.T) {
		body := "too salty after all"
		rating := 2
		updated, err := svc.UpdateReview(context.Background(), review, UpdateReviewInput{
			Replace: true,
			Body:    &body,
			Rating:  &rating,
		})
		require.NoError(t, err)
		assert.Equal(t, "too salty after all", updated.Body)
		assert.Equal(t, 2, updated.Rating)
	})
}

func seedOrder(t *testing.T, db *gorm.DB, createdAt time.Time, counts map[uint]int) {
	t.Helper()

	order := models.Order{UserID: 1}
	order.CreatedAt = createdAt
	require.NoError(t, db.Create(&order).Error)

	for productID, count := range counts {
		row := models.OrderProduct{OrderID: order.ID, ProductID: productID, Count: count}
		require.NoError(t, db.Create(&row).Error)
	}
}

func TestProductService_MonthlyBestSelling(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, newFakeStorage())

	january15 := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	firstInstant := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	lastInstant := time.Date(2026, time.January, 31, 23, 59, 59, 0, time.UTC)
	february1 := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	december31 := time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC)

	seedOrder(t, db, january15, map[uint]int{7: 2, 9: 1})
	seedOrder(t, db, firstInstant, map[uint]int{7: 3})
	seedOrder(t, db, lastInstant, map[uint]int{9: 4})
	seedOrder(t, db, february1, map[uint]int{7: 100})
	seedOrder(t, db, december31, map[uint]int{9: 100})

	rows, err := svc.MonthlyBestSelling(context.Background(), 2026, 1)
	require.NoError(t, err)

	totals := map[uint]int64{}
	for _, r := range rows {
		totals[r.ProductID] = r.TotalCount
	}
	assert.Equal(t, map[uint]int64{7: 5, 9: 5}, totals)
}

func TestProductService_MonthlyBestSelling_EmptyMonth(t *testing.T) {
	svc := NewProductService(setupTestDB(t), newFakeStorage())

	rows, err := svc.MonthlyBestSelling(context.Background(), 2026, 6)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestProductService_MonthlyBestSelling_InvalidMonth(t *testing.T) {
	svc := NewProductService(setupTestDB(t), newFakeStorage())

	for _, month := range []int{0, 13, -1} {
		_, err := svc.MonthlyBestSelling(context.Background(), 2026, month)
		assert.ErrorIs(t, err, ErrInvalidMonth)
	}
}

func TestProductService_Destroy(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, newFakeStorage())
	product := seedProduct(t, svc)

	_, err := svc.StoreReview(context.Background(), 1, product, StoreReviewInput{Body: "ok", Rating: 4})
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(context.Background(), product))

	var products, nutritionals, reviews int64
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, db.Model(&models.Nutritional{}).Count(&nutritionals).Error)
	require.NoError(t, db.Model(&models.Review{}).Count(&reviews).Error)
	assert.Zero(t, products)
	assert.Zero(t, nutritionals)
	assert.Zero(t, reviews)
}
