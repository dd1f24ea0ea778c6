package routes

import (
	"net/http"

	"Ecotrack/internal/contracts"
	"Ecotrack/internal/domain/news"

	"github.com/gin-gonic/gin"
)

func (h *Handler) toNewsResponse(p *news.Post) contracts.NewsResponse {
	return contracts.NewsResponse{
		Id:          p.Id,
		AuthorId:    p.AuthorId,
		AuthorName:  p.AuthorName,
		Title:       p.Title,
		Content:     p.Content,
		ImageURL:    h.assetURL(p.ImagePath),
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *Handler) ListNews(c *gin.Context) {
	pagination := h.parsePagination(c)
	posts, total, err := h.NewsService.List(c.Request.Context(), c.Query("search"), pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]contracts.NewsResponse, 0, len(posts))
	for _, p := range posts {
		items = append(items, h.toNewsResponse(p))
	}
	h.respondOK(c, http.StatusOK, "", newPage(items, pagination, total))
}

func (h *Handler) GetNews(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	post, err := h.NewsService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "", h.toNewsResponse(post))
}

func (h *Handler) CreateNews(c *gin.Context) {
	p, err := h.principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.NewsCreateRequest
	if err := c.ShouldBind(&body); err != nil {
		h.bindError(c, err)
		return
	}

	image, closeFile, err := h.formFile(c, "image")
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer closeFile()

	post, err := h.NewsService.Create(c.Request.Context(), p.Id, news.CreatePost{
		Title:       body.Title,
		Content:     body.Content,
		PublishedAt: body.PublishedAt,
	}, image)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusCreated, "Notícia criada com sucesso", h.toNewsResponse(post))
}

func (h *Handler) UpdateNews(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body contracts.NewsUpdateRequest
	if err := c.ShouldBind(&body); err != nil {
		h.bindError(c, err)
		return
	}

	image, closeFile, err := h.formFile(c, "image")
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer closeFile()

	post, err := h.NewsService.Update(c.Request.Context(), id, news.UpdatePost{
		Title:       body.Title,
		Content:     body.Content,
		PublishedAt: body.PublishedAt,
	}, image)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Notícia atualizada com sucesso", h.toNewsResponse(post))
}

func (h *Handler) DeleteNews(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.NewsService.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, "Notícia removida com sucesso", nil)
}
