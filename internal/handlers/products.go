package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"idef_back_end/internal/store"
)

// ListProducts expose le catalogue en lecture seule pour le storefront.
func (h *Handler) ListProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if skip < 0 {
		skip = 0
	}

	filter := store.CatalogFilter{
		Category:   c.Query("category"),
		ActiveOnly: c.DefaultQuery("is_active", "true") != "false",
		Limit:      limit,
		Skip:       skip,
	}

	products, err := h.Catalog.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.Catalog.FindByID(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.Catalog.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
