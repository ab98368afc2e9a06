package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkcopilot/pkg/format"
)

type formatRequest struct {
	Field string `json:"field" binding:"required,oneof=card expiry phone"`
	Value string `json:"value"`
}

// Format reformats one payment input as the user types.
func Format(c *gin.Context) {
	var req formatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var value string
	var want int
	switch req.Field {
	case "card":
		value, want = format.CardNumber(req.Value), format.CardDigits
	case "expiry":
		value, want = format.Expiry(req.Value), format.ExpiryDigits
	case "phone":
		value, want = format.Phone(req.Value), format.PhoneDigits
	}
	digits := format.Digits(value)
	c.JSON(http.StatusOK, gin.H{
		"value":    value,
		"digits":   digits,
		"complete": len(digits) == want,
	})
}
