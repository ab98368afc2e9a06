package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
	"inkcopilot/internal/checkout"
	"inkcopilot/internal/middleware"
	"inkcopilot/internal/repository"
	"inkcopilot/pkg/pricing"
)

type CheckoutHandler struct {
	registry *checkout.Registry
	api      *apiclient.Client
	store    *auth.CookieStore
	attempts *repository.AttemptRepository
	tier     pricing.Tier
	logger   zerolog.Logger
}

func NewCheckoutHandler(
	registry *checkout.Registry,
	api *apiclient.Client,
	store *auth.CookieStore,
	attempts *repository.AttemptRepository,
	tier pricing.Tier,
	logger zerolog.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		registry: registry,
		api:      api,
		store:    store,
		attempts: attempts,
		tier:     tier,
		logger:   logger,
	}
}

type OpenCheckoutRequest struct {
	Plan pricing.Selection `json:"plan" binding:"required"`
}

func checkoutBody(f *checkout.Flow) gin.H {
	snap := f.Snapshot()
	return gin.H{"checkout": snap, "view": checkout.Render(snap)}
}

// Open starts a checkout session for the plan picked on the pricing page.
func (h *CheckoutHandler) Open(c *gin.Context) {
	var req OpenCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	owner := middleware.GetSession(c).Owner()
	flow, err := h.registry.Open(owner, req.Plan)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, checkout.ErrInvalidPlan) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	body := checkoutBody(flow)
	if plan, ok := pricing.Lookup(h.tier, flow.Plan().Name); ok {
		body["plan"] = plan
	}
	c.JSON(http.StatusCreated, body)
}

// Submit validates the payment form and initiates the payment. Polling then
// continues in the background; the page follows it over the websocket or Get.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment form"})
		return
	}

	err := flow.Submit(c.Request.Context(), remote(c, h.api), form)
	var verr *checkout.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, checkoutBody(flow))
	case errors.As(err, &verr):
		body := checkoutBody(flow)
		body["error"] = verr.Message
		body["field"] = verr.Field
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, checkout.ErrBusy), errors.Is(err, checkout.ErrFinished):
		body := checkoutBody(flow)
		body["error"] = err.Error()
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, checkout.ErrClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, apiclient.ErrUnauthorized):
		respondAPIError(c, h.store, err, "")
	default:
		h.logger.Warn().Err(err).Str("checkout_id", flow.ID()).Msg("[checkout] submit failed")
		status := apiclient.StatusCode(err)
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		body := checkoutBody(flow)
		body["error"] = flow.Snapshot().Message
		c.JSON(status, body)
	}
}

func (h *CheckoutHandler) Get(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, checkoutBody(flow))
}

// Close is called when the checkout page goes away.
func (h *CheckoutHandler) Close(c *gin.Context) {
	owner := middleware.GetSession(c).Owner()
	if err := h.registry.Close(owner, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Attempts lists the caller's past payment attempts, newest first.
func (h *CheckoutHandler) Attempts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := h.attempts.ListByOwner(middleware.GetSession(c).Owner(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attempts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": list})
}

// Attempt returns one of the caller's past attempts by payment reference.
func (h *CheckoutHandler) Attempt(c *gin.Context) {
	a, err := h.attempts.GetByReference(middleware.GetSession(c).Owner(), c.Param("reference"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment attempt not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attempt"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": a})
}

func (h *CheckoutHandler) flow(c *gin.Context) (*checkout.Flow, bool) {
	owner := middleware.GetSession(c).Owner()
	flow, err := h.registry.Get(owner, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout session not found"})
		return nil, false
	}
	return flow, true
}
