// internal/api/book_handlers.go
package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/services"
)

// ListBooks returns the published catalog, paged and filterable.
// GET /api/books?category_id=&q=&featured=&page=&page_size=
func (h *Handlers) ListBooks(c *gin.Context) {
	filter := repository.BookFilter{
		PublishedOnly: true,
		FeaturedOnly:  c.Query("featured") == "true",
		CategoryID:    uint(queryInt(c, "category_id", 0)),
		Search:        c.Query("q"),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "page_size", 20),
	}

	books, total, err := h.books.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, books, total, filter.Page, filter.PageSize)
}

// ListAllBooks returns every book including drafts, for the admin console.
// GET /api/admin/books
func (h *Handlers) ListAllBooks(c *gin.Context) {
	filter := repository.BookFilter{
		CategoryID: uint(queryInt(c, "category_id", 0)),
		Search:     c.Query("q"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}

	books, total, err := h.books.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, books, total, filter.Page, filter.PageSize)
}

// GetBook returns one book's catalog entry by ID or slug.
// GET /api/books/:id
func (h *Handlers) GetBook(c *gin.Context) {
	raw := c.Param("id")
	if id, ok := parseUintParam(raw); ok {
		book, err := h.books.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, book)
		return
	}

	book, err := h.books.GetBySlug(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, book)
}

// GetBookContent returns a book with its generated summary, outline and
// chapters. Premium: sits behind the subscriber gate.
// GET /api/books/:id/content
func (h *Handlers) GetBookContent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.books.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// CreateBook adds a catalog entry.
// POST /api/admin/books
func (h *Handlers) CreateBook(c *gin.Context) {
	var input services.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid book payload")
		return
	}

	book, err := h.books.Create(c.Request.Context(), input, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, book)
}

// UpdateBook edits a catalog entry.
// PUT /api/admin/books/:id
func (h *Handlers) UpdateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid book payload")
		return
	}

	book, err := h.books.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, book)
}

// DeleteBook removes a book and all of its generated content.
// DELETE /api/admin/books/:id
func (h *Handlers) DeleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.books.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishBook flips a book's published flag.
// POST /api/admin/books/:id/publish
func (h *Handlers) PublishBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid payload")
		return
	}

	book, err := h.books.SetPublished(c.Request.Context(), id, req.Published)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, book)
}

// UploadFile accepts a PDF or cover image and returns its served URL.
// POST /api/admin/uploads?kind=pdf|cover
func (h *Handlers) UploadFile(c *gin.Context) {
	kind := c.DefaultQuery("kind", "pdf")
	if kind != "pdf" && kind != "cover" {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "kind must be pdf or cover")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "missing file field")
		return
	}
	if kind == "pdf" && !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "only PDF files are accepted")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := h.storage.SaveUpload(kind, fileHeader.Filename, content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"url": url})
}

// ListCategories returns all categories in display order.
// GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, categories)
}

// CreateCategory adds a category.
// POST /api/admin/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid category payload")
		return
	}

	category, err := h.categories.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, category)
}

// UpdateCategory edits a category.
// PUT /api/admin/categories/:id
func (h *Handlers) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid category payload")
		return
	}

	category, err := h.categories.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, category)
}

// DeleteCategory removes an empty category.
// DELETE /api/admin/categories/:id
func (h *Handlers) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseUintParam(raw string) (uint, bool) {
	var id uint
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + uint(r-'0')
	}
	return id, raw != "" && id != 0
}
