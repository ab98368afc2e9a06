package apiclient

import (
	"context"
	"net/url"
	"strconv"
)

type UsageStats struct {
	UsedPosts       int     `json:"usedPosts"`
	TotalPosts      int     `json:"totalPosts"`
	UsagePercentage float64 `json:"usagePercentage"`
	RemainingPosts  int     `json:"remainingPosts"`
	UsageHistory    []struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	} `json:"usageHistory"`
	Subscription *struct {
		Plan string `json:"plan,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"subscription,omitempty"`
}

func (a *API) Usage(ctx context.Context) (*UsageStats, error) {
	var out UsageStats
	if err := a.get(ctx, "/api/usage", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type TrendingTopic struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Trend    string `json:"trend"`
}

type TopContent struct {
	Title       string `json:"title"`
	Views       string `json:"views"`
	Engagement  string `json:"engagement"`
	PublishDate string `json:"publishDate"`
}

type Analytics struct {
	TrendingTopics []TrendingTopic `json:"trendingTopics"`
	TopContent     []TopContent    `json:"topContent"`
}

// Analytics covers the last days days; non-positive values mean 30.
func (a *API) Analytics(ctx context.Context, days int) (*Analytics, error) {
	if days <= 0 {
		days = 30
	}
	var out Analytics
	q := url.Values{"days": []string{strconv.Itoa(days)}}
	if err := a.get(ctx, "/analytics", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type Notification struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"` // feature, billing, success, info
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (a *API) Notifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := a.get(ctx, "/api/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) MarkNotificationRead(ctx context.Context, id string) (*Notification, error) {
	var out Notification
	if err := a.patch(ctx, "/api/notifications/"+url.PathEscape(id)+"/read", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) MarkAllNotificationsRead(ctx context.Context) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.patch(ctx, "/api/notifications/mark-all-read", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
