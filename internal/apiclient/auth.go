package apiclient

import "context"

type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterData struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullNames string `json:"fullNames"`
}

type ResetPasswordData struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// AuthUser is the user summary returned alongside a token.
type AuthUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullNames string `json:"fullNames"`
	Avatar    string `json:"avatar,omitempty"`
}

type AuthResponse struct {
	Token   string   `json:"token"`
	User    AuthUser `json:"user"`
	Message string   `json:"message,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (a *API) Login(ctx context.Context, creds LoginCredentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.post(ctx, "/auth/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Register(ctx context.Context, data RegisterData) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.post(ctx, "/auth/register", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.post(ctx, "/auth/forgot-password", map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) ResetPassword(ctx context.Context, data ResetPasswordData) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.post(ctx, "/auth/reset-password", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
