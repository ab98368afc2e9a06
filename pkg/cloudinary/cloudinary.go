package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// ErrNotConfigured is returned by NewClientFromParams when credentials are missing.
var ErrNotConfigured = errors.New("cloudinary not configured")

// Client uploads account avatars.
type Client interface {
	UploadAvatar(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
	Delete(ctx context.Context, publicID string) error
}

// Avatars are cropped square around the face and served in the best format for the browser.
const (
	AvatarSize  = 256
	avatarEager = "q_auto,f_auto,w_256,h_256,c_thumb,g_face"
)

var (
	eagerAsyncFalse = false
	overwriteTrue   = true
)

// BuildAvatarURL returns the delivery URL of an uploaded avatar at size px.
func BuildAvatarURL(cloudName, publicID string, size int) string {
	if size <= 0 {
		size = AvatarSize
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,h_%d,c_thumb,g_face/%s",
		cloudName, size, size, publicID)
}

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

func (c *clientImpl) UploadAvatar(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Overwrite:  &overwriteTrue,
		Eager:      avatarEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	if len(result.Eager) > 0 && result.Eager[0].SecureURL != "" {
		return result.Eager[0].SecureURL, nil
	}
	return BuildAvatarURL(c.cloudName, result.PublicID, AvatarSize), nil
}

func (c *clientImpl) Delete(ctx context.Context, publicID string) error {
	_, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}
