package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
)

// DashboardHandler proxies the content side of the dashboard: stats, jobs,
// posts, sites, usage and analytics.
type DashboardHandler struct {
	api   *apiclient.Client
	store *auth.CookieStore
}

func NewDashboardHandler(api *apiclient.Client, store *auth.CookieStore) *DashboardHandler {
	return &DashboardHandler{api: api, store: store}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := remote(c, h.api).DashboardStats(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) Jobs(c *gin.Context) {
	jobs, err := remote(c, h.api).Jobs(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load jobs")
		return
	}
	c.JSON(http.StatusOK, jobs)
}

type CreateJobRequest struct {
	Title  string              `json:"title" binding:"required"`
	Type   string              `json:"type" binding:"required,oneof=news post article"`
	Config apiclient.JobConfig `json:"config"`
}

func (h *DashboardHandler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := remote(c, h.api).CreateJob(c.Request.Context(), apiclient.CreateJobData{
		Title:  req.Title,
		Type:   req.Type,
		Config: req.Config,
	})
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to create job")
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *DashboardHandler) Posts(c *gin.Context) {
	var filters apiclient.PostFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	posts, err := remote(c, h.api).Posts(c.Request.Context(), filters)
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *DashboardHandler) Post(c *gin.Context) {
	post, err := remote(c, h.api).Post(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load post")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *DashboardHandler) CreatePost(c *gin.Context) {
	var post apiclient.Post
	if err := c.ShouldBindJSON(&post); err != nil || post.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	created, err := remote(c, h.api).CreatePost(c.Request.Context(), post)
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to create post")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *DashboardHandler) UpdatePost(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	post, err := remote(c, h.api).UpdatePost(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to update post")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *DashboardHandler) DeletePost(c *gin.Context) {
	if err := remote(c, h.api).DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		respondAPIError(c, h.store, err, "Failed to delete post")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DashboardHandler) Sites(c *gin.Context) {
	sites, err := remote(c, h.api).Sites(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load sites")
		return
	}
	if sites == nil {
		sites = []apiclient.Site{}
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

func (h *DashboardHandler) Site(c *gin.Context) {
	site, err := remote(c, h.api).Site(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load site")
		return
	}
	c.JSON(http.StatusOK, site)
}

type SiteRequest struct {
	Name     string `json:"name" binding:"required"`
	URL      string `json:"url" binding:"required,url"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *DashboardHandler) CreateSite(c *gin.Context) {
	var req SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	site, err := remote(c, h.api).CreateSite(c.Request.Context(), apiclient.Site{
		Name:     req.Name,
		URL:      req.URL,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to add site")
		return
	}
	c.JSON(http.StatusCreated, site)
}

func (h *DashboardHandler) UpdateSite(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	site, err := remote(c, h.api).UpdateSite(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to update site")
		return
	}
	c.JSON(http.StatusOK, site)
}

func (h *DashboardHandler) DeleteSite(c *gin.Context) {
	if err := remote(c, h.api).DeleteSite(c.Request.Context(), c.Param("id")); err != nil {
		respondAPIError(c, h.store, err, "Failed to delete site")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DashboardHandler) Usage(c *gin.Context) {
	usage, err := remote(c, h.api).Usage(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load usage")
		return
	}
	c.JSON(http.StatusOK, usage)
}

// Analytics accepts ?days=N; anything unparsable falls back to the API default.
func (h *DashboardHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	data, err := remote(c, h.api).Analytics(c.Request.Context(), days)
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load analytics")
		return
	}
	c.JSON(http.StatusOK, data)
}
