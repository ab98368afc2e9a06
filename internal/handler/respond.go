package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
	"inkcopilot/internal/middleware"
)

// remote binds the shared API client to the caller's session.
func remote(c *gin.Context, api *apiclient.Client) *apiclient.API {
	token := ""
	if sess := middleware.GetSession(c); sess != nil {
		token = sess.Token
	}
	return api.For(api.Session(token))
}

// respondAPIError maps a remote failure onto the response. A 401 from the API
// signs the user out.
func respondAPIError(c *gin.Context, store *auth.CookieStore, err error, fallback string) {
	_ = c.Error(err)
	if errors.Is(err, apiclient.ErrUnauthorized) {
		store.Clear(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, please sign in again"})
		return
	}
	status := apiclient.StatusCode(err)
	if status < 400 || status >= 500 {
		status = http.StatusBadGateway
	}
	body := gin.H{"error": apiclient.UserMessage(err, fallback)}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.NextBillingDate != nil {
		body["nextBillingDate"] = apiErr.NextBillingDate.Format(time.RFC3339)
	}
	c.JSON(status, body)
}
