package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkcopilot/config"
	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
	"inkcopilot/internal/checkout"
	"inkcopilot/internal/middleware"
	"inkcopilot/pkg/pricing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHubBroadcastsToSession(t *testing.T) {
	hub := NewHub()
	a := NewClient("s1", "u1")
	b := NewClient("s2", "u1")
	hub.Register(a)
	hub.Register(b)

	hub.CheckoutChanged(checkout.Snapshot{ID: "s1", State: checkout.StatePolling, Method: apiclient.MethodMobileMoney})

	require.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 0)
	var msg Message
	require.NoError(t, json.Unmarshal(<-a.Send, &msg))
	assert.Equal(t, "checkout", msg.Type)
	assert.Equal(t, checkout.LabelVerifying, msg.View.ButtonLabel)
	assert.Equal(t, checkout.StatePolling, msg.Checkout.State)

	second := NewClient("s1", "u1")
	hub.Register(second)
	assert.False(t, a.Close(), "another page still watches s1")
	assert.True(t, second.Close())
	assert.False(t, second.Close(), "close is idempotent")
	assert.Equal(t, 1, hub.ClientCount())

	hub.CheckoutChanged(checkout.Snapshot{ID: "s1"})
}

func TestSameOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://app.example.com/ws/checkout", nil)
	assert.True(t, sameOrigin(r))
	r.Header.Set("Origin", "http://app.example.com")
	assert.True(t, sameOrigin(r))
	r.Header.Set("Origin", "https://evil.example.net")
	assert.False(t, sameOrigin(r))
}

func TestUpgradeCheckoutWS(t *testing.T) {
	store := auth.NewCookieStore(config.AuthConfig{SessionSecret: "test-secret", CookieName: "inkcopilot_auth", CookieMaxAge: time.Hour}, nil)
	hub := NewHub()
	registry := checkout.NewRegistry(checkout.Options{Clock: clockwork.NewFakeClock(), Logger: zerolog.Nop(), Observer: hub}, time.Hour)
	flow, err := registry.Open("u1", pricing.Selection{Name: pricing.PlanPro})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/ws/checkout", middleware.SessionRequired(store), UpgradeCheckoutWS(registry, hub, zerolog.Nop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	raw, err := store.Encode(auth.Session{Token: tok, User: apiclient.AuthUser{ID: "u1"}})
	require.NoError(t, err)
	header := http.Header{}
	header.Set("Cookie", (&http.Cookie{Name: "inkcopilot_auth", Value: raw}).String())

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/checkout?id=" + flow.ID()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, flow.ID(), msg.Checkout.ID)
	assert.Equal(t, checkout.LabelSubmit, msg.View.ButtonLabel)

	conn.Close()
	require.Eventually(t, func() bool { return registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, flow.Snapshot().Closed)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
