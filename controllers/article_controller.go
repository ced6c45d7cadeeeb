package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type ArticleController struct {
	articles *services.ArticleService
}

func NewArticleController(articles *services.ArticleService) *ArticleController {
	return &ArticleController{articles: articles}
}

// @Summary Get all articles
// @Description Articles with author, category and tags; content is omitted
// @Tags Blog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PaginationResponse
// @Router /blog/articles [get]
func (ctrl *ArticleController) ListArticles(c *gin.Context) {
	page, limit := pageParams(c)

	articles, meta, err := ctrl.articles.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve articles")
		return
	}

	c.JSON(http.StatusOK, models.PaginationResponse{
		Success: true,
		Message: "Articles retrieved",
		Data:    articles,
		Meta:    meta,
	})
}

// @Summary Get article by ID
// @Tags Blog
// @Produce json
// @Param id path int true "Article ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/articles/{id} [get]
func (ctrl *ArticleController) GetArticle(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	article, err := ctrl.articles.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Article not found")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Article retrieved", Data: article})
}

// @Summary Create article
// @Tags Admin - Blog
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.ArticleInput true "Article"
// @Success 201 {object} models.Response
// @Router /blog/articles [post]
func (ctrl *ArticleController) CreateArticle(c *gin.Context) {
	var in models.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	article, err := ctrl.articles.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Failed to create article")
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Article created successfully", Data: article})
}

// @Summary Update article
// @Tags Admin - Blog
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Article ID"
// @Param request body models.ArticleInput true "Fields to change"
// @Success 200 {object} models.Response
// @Router /blog/articles/{id} [patch]
func (ctrl *ArticleController) UpdateArticle(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var in models.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	article, err := ctrl.articles.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "Failed to update article")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Article updated successfully", Data: article})
}

// @Summary Delete article
// @Tags Admin - Blog
// @Security BearerAuth
// @Produce json
// @Param id path int true "Article ID"
// @Success 200 {object} models.Response
// @Router /blog/articles/{id} [delete]
func (ctrl *ArticleController) DeleteArticle(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := ctrl.articles.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete article")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Article deleted successfully"})
}
