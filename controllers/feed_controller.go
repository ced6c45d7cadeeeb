package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"

	"storefront/services"
)

const feedSize = 5

type FeedController struct {
	products *services.ProductService
	articles *services.ArticleService
	baseURL  string
}

func NewFeedController(products *services.ProductService, articles *services.ArticleService, baseURL string) *FeedController {
	return &FeedController{
		products: products,
		articles: articles,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// render writes RSS by default and Atom when ?format=atom.
func (ctrl *FeedController) render(c *gin.Context, feed *feeds.Feed) {
	var (
		body        string
		err         error
		contentType = "application/rss+xml; charset=utf-8"
	)
	if c.Query("format") == "atom" {
		body, err = feed.ToAtom()
		contentType = "application/atom+xml; charset=utf-8"
	} else {
		body, err = feed.ToRss()
	}
	if err != nil {
		respondError(c, err, "Failed to render feed")
		return
	}
	c.Data(http.StatusOK, contentType, []byte(body))
}

// @Summary Latest products feed
// @Tags Feeds
// @Produce xml
// @Param format query string false "rss or atom" default(rss)
// @Success 200 {string} string
// @Router /shop/products/latest/feed [get]
func (ctrl *FeedController) LatestProducts(c *gin.Context) {
	products, err := ctrl.products.Latest(c.Request.Context(), feedSize)
	if err != nil {
		respondError(c, err, "Failed to retrieve products")
		return
	}

	feed := &feeds.Feed{
		Title:       "Shop products (latest)",
		Link:        &feeds.Link{Href: ctrl.baseURL + "/shop/products"},
		Description: "New products in shop",
		Created:     time.Now(),
	}
	for _, p := range products {
		link := fmt.Sprintf("%s/shop/products/%d", ctrl.baseURL, p.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       p.Name,
			Link:        &feeds.Link{Href: link},
			Description: p.ShortDescription(100),
			Created:     p.CreatedAt,
		})
	}
	ctrl.render(c, feed)
}

// @Summary Latest articles feed
// @Tags Feeds
// @Produce xml
// @Param format query string false "rss or atom" default(rss)
// @Success 200 {string} string
// @Router /blog/articles/latest/feed [get]
func (ctrl *FeedController) LatestArticles(c *gin.Context) {
	articles, err := ctrl.articles.LatestPublished(c.Request.Context(), feedSize)
	if err != nil {
		respondError(c, err, "Failed to retrieve articles")
		return
	}

	feed := &feeds.Feed{
		Title:       "Blog articles (latest)",
		Link:        &feeds.Link{Href: ctrl.baseURL + "/blog/articles"},
		Description: "Updates on changes and addition blog articles",
		Created:     time.Now(),
	}
	for _, a := range articles {
		link := fmt.Sprintf("%s/blog/articles/%d", ctrl.baseURL, a.ID)
		item := &feeds.Item{
			Id:          link,
			Title:       a.Title,
			Link:        &feeds.Link{Href: link},
			Description: truncate(a.Content, 150),
			Author:      &feeds.Author{Name: a.Author.Name},
		}
		if a.PubDate != nil {
			item.Created = *a.PubDate
		}
		feed.Items = append(feed.Items, item)
	}
	ctrl.render(c, feed)
}
