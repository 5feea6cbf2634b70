package controller

import (
	"coding_quiz_backend/internal/service"
	"coding_quiz_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type FeedController struct {
	FeedService *service.FeedService
}

func NewFeedController(feedService *service.FeedService) *FeedController {
	return &FeedController{FeedService: feedService}
}

// RSS godoc
// @Summary RSS 订阅
// @Description 最近新增的 20 道题目
// @Tags 订阅
// @Produce  xml
// @Success 200 {string} string "RSS 2.0 XML"
// @Router /rss [get]
func (c *FeedController) RSS(ctx *gin.Context) {
	feed, err := c.FeedService.BuildRSS()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "application/rss+xml; charset=utf-8", feed)
}

// Sitemap godoc
// @Summary 站点地图
// @Tags 订阅
// @Produce  xml
// @Success 200 {string} string "sitemap XML"
// @Router /sitemap.xml [get]
func (c *FeedController) Sitemap(ctx *gin.Context) {
	sitemap, err := c.FeedService.BuildSitemap()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "application/xml; charset=utf-8", sitemap)
}
