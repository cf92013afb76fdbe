package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// поле формы с файлом
const imageFormField = "file"

// MediaHandler фотографии объявлений. Формат определяется по содержимому
// файла в storage, имя и Content-Type от клиента не учитываются.
type MediaHandler struct {
	products *service.ProductService
}

func NewMediaHandler(products *service.ProductService) *MediaHandler {
	return &MediaHandler{products: products}
}

// UploadImage POST /products/:id/images (multipart: file, is_primary)
func (h *MediaHandler) UploadImage(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	productID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile(imageFormField)
	if err != nil || header.Size == 0 {
		common.RespondBadRequest(c, "нужен непустой файл в поле "+imageFormField)
		return
	}

	primary := false
	if raw := c.PostForm("is_primary"); raw != "" {
		if primary, err = strconv.ParseBool(raw); err != nil {
			common.RespondBadRequest(c, "is_primary должен быть true или false")
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	img, err := h.products.AddImage(c.Request.Context(), userID, productID, file, primary)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

// DeleteImage DELETE /products/:id/images/:imageId
func (h *MediaHandler) DeleteImage(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	productID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := common.RequireUUIDParam(c, "imageId")
	if !ok {
		return
	}

	if err := h.products.DeleteImage(c.Request.Context(), userID, productID, imageID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
