package middlewares

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"store/config"
	"store/models"
	"store/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthTest(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	config.DB = db

	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		id, _ := UserIDFromCtx(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	r.GET("/admin", AuthMiddleware(), AdminMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := setupAuthTest(t)

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "").Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "Basic abc").Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "Bearer not-a-token").Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"userId": 1,
			"exp":    time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "Bearer "+signed).Code)
	})

	t.Run("valid token", func(t *testing.T) {
		signed, err := utils.GenerateJWT(17, "user@example.com")
		require.NoError(t, err)

		w := doRequest(r, "/me", "Bearer "+signed)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id": 17}`, w.Body.String())
	})
}

func TestAdminMiddleware(t *testing.T) {
	r := setupAuthTest(t)

	customer := models.User{Name: "Customer", Email: "c@example.com", Password: "x"}
	require.NoError(t, config.DB.Create(&customer).Error)
	admin := models.User{Name: "Admin", Email: "a@example.com", Password: "x", IsAdmin: true}
	require.NoError(t, config.DB.Create(&admin).Error)

	customerToken, err := utils.GenerateJWT(customer.ID, customer.Email)
	require.NoError(t, err)
	adminToken, err := utils.GenerateJWT(admin.ID, admin.Email)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doRequest(r, "/admin", "Bearer "+customerToken).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "/admin", "Bearer "+adminToken).Code)
}
