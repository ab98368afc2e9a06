package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inkcopilot/pkg/pricing"
)

type PricingHandler struct {
	tier pricing.Tier
}

func NewPricingHandler(tier pricing.Tier) *PricingHandler {
	return &PricingHandler{tier: tier}
}

// Plans returns the catalogue and the Custom slider bounds.
func (h *PricingHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"plans": pricing.Catalogue(h.tier),
		"custom": gin.H{
			"minPosts":  h.tier.BasePosts,
			"maxPosts":  h.tier.MaxPosts,
			"step":      h.tier.BatchSize,
			"basePrice": h.tier.BasePrice,
		},
	})
}

// Quote prices a Custom plan for ?posts=N.
func (h *PricingHandler) Quote(c *gin.Context) {
	posts, err := strconv.Atoi(c.Query("posts"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "posts must be a number"})
		return
	}
	if err := h.tier.ValidatePosts(posts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"price":  h.tier.Price(posts),
		"period": "month",
	})
}
