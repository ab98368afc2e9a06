package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
	"inkcopilot/pkg/format"
	"inkcopilot/pkg/pricing"
)

type BillingHandler struct {
	api    *apiclient.Client
	store  *auth.CookieStore
	tier   pricing.Tier
	logger zerolog.Logger
}

func NewBillingHandler(api *apiclient.Client, store *auth.CookieStore, tier pricing.Tier, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{api: api, store: store, tier: tier, logger: logger}
}

// Details returns plan, payment method and transactions in one response.
func (h *BillingHandler) Details(c *gin.Context) {
	details, err := remote(c, h.api).BillingDetails(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load billing details")
		return
	}
	if details.Transactions == nil {
		details.Transactions = []apiclient.Transaction{}
	}
	c.JSON(http.StatusOK, details)
}

func (h *BillingHandler) Transactions(c *gin.Context) {
	txs, err := remote(c, h.api).Transactions(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load transactions")
		return
	}
	if txs == nil {
		txs = []apiclient.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

type UpdateCardRequest struct {
	CardName   string `json:"cardName" binding:"required"`
	CardNumber string `json:"cardNumber" binding:"required"`
	Expiry     string `json:"expiry" binding:"required"`
	CVV        string `json:"cvv" binding:"required"`
}

func (h *BillingHandler) UpdatePaymentMethod(c *gin.Context) {
	var req UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	number := format.CardSubmission(req.CardNumber)
	if len(number) != format.CardDigits {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card number must be 16 digits"})
		return
	}
	expiry := format.Expiry(req.Expiry)
	if len(format.Digits(expiry)) != format.ExpiryDigits {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiry must be MM/YY"})
		return
	}
	cvv := format.Digits(req.CVV)
	if len(cvv) < 3 || len(cvv) > 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid CVV"})
		return
	}
	err := remote(c, h.api).UpdatePaymentMethod(c.Request.Context(), apiclient.UpdateCardData{
		CardName:   strings.TrimSpace(req.CardName),
		CardNumber: number,
		Expiry:     expiry,
		CVV:        cvv,
	})
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to update payment method")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment method updated"})
}

type ChangePlanRequest struct {
	Plan  string `json:"plan" binding:"required"`
	Posts int    `json:"posts"`
}

// ChangePlan forwards a plan switch. When the API refuses until the current
// period ends, the response carries nextBillingDate.
func (h *BillingHandler) ChangePlan(c *gin.Context) {
	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := pricing.ParsePlanName(req.Plan)
	data := apiclient.ChangePlanData{PlanName: string(name)}
	if name == pricing.PlanCustom {
		if err := h.tier.ValidatePosts(req.Posts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data.PostsLimit = req.Posts
	}
	resp, err := remote(c, h.api).ChangePlan(c.Request.Context(), data)
	if err != nil {
		h.logger.Info().Err(err).Str("plan", string(name)).Msg("[billing] change plan refused")
		respondAPIError(c, h.store, err, "Failed to change plan")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) Subscription(c *gin.Context) {
	sub, err := remote(c, h.api).SubscriptionWithUsage(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load subscription")
		return
	}
	c.JSON(http.StatusOK, sub)
}
