package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type JobConfig struct {
	AIModel       string   `json:"aiModel"`
	MaxWordCount  int      `json:"maxWordCount"`
	Category      string   `json:"category"`
	Schedule      string   `json:"schedule"`
	TargetWebsite string   `json:"targetWebsite"`
	Sources       []string `json:"sources"`
}

type Job struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`   // news, post, article
	Status    string    `json:"status"` // queued, running, completed, failed
	Progress  int       `json:"progress"`
	Config    JobConfig `json:"config"`
	CreatedAt time.Time `json:"createdAt"`
}

type JobStats struct {
	ActiveJobs        int `json:"activeJobs"`
	TotalJobs         int `json:"totalJobs"`
	NewsGenerated     int `json:"newsGenerated"`
	PostsGenerated    int `json:"postsGenerated"`
	ArticlesGenerated int `json:"articlesGenerated"`
}

type JobsResponse struct {
	Jobs       []Job      `json:"jobs"`
	Pagination Pagination `json:"pagination"`
	Stats      JobStats   `json:"stats"`
}

type CreateJobData struct {
	Title  string    `json:"title"`
	Type   string    `json:"type"`
	Config JobConfig `json:"config"`
}

func (a *API) Jobs(ctx context.Context) (*JobsResponse, error) {
	var out JobsResponse
	if err := a.get(ctx, "/api/jobs", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreateJob(ctx context.Context, data CreateJobData) (*Job, error) {
	var out Job
	if err := a.post(ctx, "/api/jobs", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type DashboardStats struct {
	TotalPosts      int     `json:"totalPosts"`
	ActiveJobs      int     `json:"activeJobs"`
	AverageTime     string  `json:"averageTime"`
	AverageSeoScore float64 `json:"averageSeoScore"`
	SeoPerformance  struct {
		KeywordOptimization float64 `json:"keywordOptimization"`
		ContentQuality      float64 `json:"contentQuality"`
		Readability         float64 `json:"readability"`
	} `json:"seoPerformance"`
	RecentJobs    []Job `json:"recentJobs"`
	PostsOverview struct {
		Dates []string `json:"dates"`
		Posts []int    `json:"posts"`
	} `json:"postsOverview"`
	Subscription struct {
		Plan   string `json:"plan"`
		Status string `json:"status"`
	} `json:"subscription"`
}

func (a *API) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := a.get(ctx, "/api/dashboard/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type PostMetadata struct {
	Keywords    []string `json:"keywords,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type WordPressInfo struct {
	PostID int    `json:"postId,omitempty"`
	URL    string `json:"url,omitempty"`
	Status string `json:"status,omitempty"`
}

type Post struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Content          string         `json:"content"`
	Type             string         `json:"type"`
	Status           string         `json:"status"` // draft, published, scheduled
	WordCount        int            `json:"wordCount,omitempty"`
	SeoScore         float64        `json:"seoScore,omitempty"`
	ReadabilityScore float64        `json:"readabilityScore,omitempty"`
	PublishedAt      *time.Time     `json:"publishedAt,omitempty"`
	ScheduledFor     *time.Time     `json:"scheduledFor,omitempty"`
	Metadata         *PostMetadata  `json:"metadata,omitempty"`
	WordPress        *WordPressInfo `json:"wordpress,omitempty"`
	CreatedAt        *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time     `json:"updatedAt,omitempty"`
}

type PostsResponse struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
	Counts     struct {
		Articles int `json:"articles"`
		News     int `json:"news"`
		Posts    int `json:"posts"`
	} `json:"counts"`
}

// PostFilters are sent as query parameters; zero values are omitted.
type PostFilters struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Type      string `form:"type"`
	Status    string `form:"status"`
	Search    string `form:"search"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

func (f PostFilters) values() url.Values {
	v := url.Values{}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	for key, val := range map[string]string{
		"type": f.Type, "status": f.Status, "search": f.Search,
		"startDate": f.StartDate, "endDate": f.EndDate,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

func (a *API) Posts(ctx context.Context, filters PostFilters) (*PostsResponse, error) {
	var out PostsResponse
	if err := a.get(ctx, "/api/posts", filters.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Post(ctx context.Context, id string) (*Post, error) {
	var out Post
	if err := a.get(ctx, "/api/posts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreatePost(ctx context.Context, p Post) (*Post, error) {
	var out Post
	if err := a.post(ctx, "/api/posts", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdatePost(ctx context.Context, id string, fields map[string]any) (*Post, error) {
	var out Post
	if err := a.put(ctx, "/api/posts/"+url.PathEscape(id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeletePost(ctx context.Context, id string) error {
	return a.delete(ctx, "/api/posts/"+url.PathEscape(id), nil)
}

// Site is a WordPress site the jobs publish to.
type Site struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func (a *API) Sites(ctx context.Context) ([]Site, error) {
	var out []Site
	if err := a.get(ctx, "/api/sites", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Site(ctx context.Context, id string) (*Site, error) {
	var out Site
	if err := a.get(ctx, "/api/sites/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreateSite(ctx context.Context, s Site) (*Site, error) {
	var out Site
	if err := a.post(ctx, "/api/sites", s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateSite(ctx context.Context, id string, fields map[string]any) (*Site, error) {
	var out Site
	if err := a.put(ctx, "/api/sites/"+url.PathEscape(id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteSite(ctx context.Context, id string) error {
	return a.delete(ctx, "/api/sites/"+url.PathEscape(id), nil)
}
