package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"store/models"
	"store/services"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	Svc *services.ProductService
}

func NewProductController(svc *services.ProductService) *ProductController {
	return &ProductController{Svc: svc}
}

// productResponse adds the derived public image URL to the serialized
// product.
type productResponse struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Composition string              `json:"composition"`
	Price       int                 `json:"price"`
	ImgPath     string              `json:"img_path"`
	ImgURL      string              `json:"img_url"`
	Nutritional nutritionalResponse `json:"nutritional"`
}

type nutritionalResponse struct {
	ID            uint `json:"id"`
	Proteins      int  `json:"proteins"`
	Fats          int  `json:"fats"`
	Carbohydrates int  `json:"carbohydrates"`
}

func (pc *ProductController) respond(p *models.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Composition: p.Composition,
		Price:       p.Price,
		ImgPath:     p.ImgPath,
		ImgURL:      pc.Svc.ImageURL(p),
		Nutritional: nutritionalResponse{
			ID:            p.Nutritional.ID,
			Proteins:      p.Nutritional.Proteins,
			Fats:          p.Nutritional.Fats,
			Carbohydrates: p.Nutritional.Carbohydrates,
		},
	}
}

// GET /products/index
func (pc *ProductController) Index(c *gin.Context) {
	products, err := pc.Svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data := make([]productResponse, 0, len(products))
	for i := range products {
		data = append(data, pc.respond(&products[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GET /products/show/:id
func (pc *ProductController) Show(c *gin.Context) {
	product, ok := pc.findParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, pc.respond(product))
}

type storeProductRequest struct {
	Name          string `form:"name" binding:"required"`
	Description   string `form:"description" binding:"required"`
	Composition   string `form:"composition" binding:"required"`
	Price         *int   `form:"price" binding:"required"`
	Proteins      *int   `form:"proteins" binding:"required"`
	Fats          *int   `form:"fats" binding:"required"`
	Carbohydrates *int   `form:"carbohydrates" binding:"required"`
}

// POST /products/store (multipart)
func (pc *ProductController) Store(c *gin.Context) {
	var req storeProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	image, closeImage, err := openUpload(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image file"})
		return
	}
	defer closeImage()

	product, err := pc.Svc.Store(c.Request.Context(), services.StoreProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Composition:   req.Composition,
		Price:         *req.Price,
		Proteins:      *req.Proteins,
		Fats:          *req.Fats,
		Carbohydrates: *req.Carbohydrates,
		Image:         image,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, pc.respond(product))
}

type replaceProductRequest struct {
	Name          *string `form:"name" binding:"required"`
	Description   *string `form:"description" binding:"required"`
	Composition   *string `form:"composition" binding:"required"`
	Price         *int    `form:"price" binding:"required"`
	Proteins      *int    `form:"proteins" binding:"required"`
	Fats          *int    `form:"fats" binding:"required"`
	Carbohydrates *int    `form:"carbohydrates" binding:"required"`
}

// POST /products/update/:id (multipart). A PUT method override selects
// full-replace semantics, anything else is a partial patch.
func (pc *ProductController) Update(c *gin.Context) {
	product, ok := pc.findParam(c)
	if !ok {
		return
	}

	in := services.UpdateProductInput{Replace: overrideMethod(c) == http.MethodPut}
	if in.Replace {
		var req replaceProductRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in.Name = req.Name
		in.Description = req.Description
		in.Composition = req.Composition
		in.Price = req.Price
		in.Proteins = req.Proteins
		in.Fats = req.Fats
		in.Carbohydrates = req.Carbohydrates
	} else {
		if v, exists := c.GetPostForm("name"); exists {
			in.Name = &v
		}
		if v, exists := c.GetPostForm("description"); exists {
			in.Description = &v
		}
		if v, exists := c.GetPostForm("composition"); exists {
			in.Composition = &v
		}

		var err error
		if in.Price, err = intForm(c, "price"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if in.Proteins, err = intForm(c, "proteins"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if in.Fats, err = intForm(c, "fats"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if in.Carbohydrates, err = intForm(c, "carbohydrates"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if fh, err := c.FormFile("image"); err == nil {
		image, closeImage, err := openUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image file"})
			return
		}
		defer closeImage()
		in.Image = image
	}

	updated, err := pc.Svc.Update(c.Request.Context(), product, in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pc.respond(updated))
}

// DELETE /products/destroy/:id
func (pc *ProductController) Destroy(c *gin.Context) {
	product, ok := pc.findParam(c)
	if !ok {
		return
	}

	if err := pc.Svc.Destroy(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

func (pc *ProductController) findParam(c *gin.Context) (*models.Product, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return nil, false
	}

	product, err := pc.Svc.Find(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return nil, false
	}
	return product, true
}

func openUpload(fh *multipart.FileHeader) (*services.ImageUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.ImageUpload{
		Reader:      f,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
	}, func() { f.Close() }, nil
}
