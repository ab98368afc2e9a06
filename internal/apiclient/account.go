package apiclient

import "context"

type Subscription struct {
	Plan       string   `json:"plan"`
	Status     string   `json:"status"`
	StartDate  string   `json:"startDate,omitempty"`
	EndDate    string   `json:"endDate,omitempty"`
	Price      float64  `json:"price,omitempty"`
	PostsLimit int      `json:"postsLimit,omitempty"`
	TokenLimit int      `json:"tokenLimit,omitempty"`
	Features   []string `json:"features"`
}

type UserBilling struct {
	Address    string `json:"address,omitempty"`
	CardLast4  string `json:"cardLast4,omitempty"`
	CardBrand  string `json:"cardBrand,omitempty"`
	CardExpiry string `json:"cardExpiry,omitempty"`
}

type Profile struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	FullNames    string        `json:"fullNames"`
	Phone        string        `json:"phone,omitempty"`
	Company      string        `json:"company,omitempty"`
	Role         string        `json:"role,omitempty"`
	Avatar       string        `json:"avatar,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
	Billing      *UserBilling  `json:"billing,omitempty"`
}

type UpdateProfileData struct {
	FullNames string `json:"fullNames,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Role      string `json:"role,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

type UpdateBillingData struct {
	Address string `json:"address"`
}

func (a *API) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := a.get(ctx, "/api/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateProfile(ctx context.Context, data UpdateProfileData) (*Profile, error) {
	var out Profile
	if err := a.put(ctx, "/api/profile", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateBilling(ctx context.Context, data UpdateBillingData) (*Profile, error) {
	var out Profile
	if err := a.put(ctx, "/api/profile/billing", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
