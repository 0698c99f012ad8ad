package ytautopub

import (
	"context"
	"errors"

	"ytautopub/browser"
	"ytautopub/config"
	"ytautopub/hub"
	"ytautopub/retry"
	"ytautopub/vault"
	"ytautopub/youtube"
)

// Metadata describes the video being published.
type Metadata = youtube.Metadata

// Publish uploads a video with the given metadata and returns the new
// video's ID. Configuration is loaded from the environment and config file;
// credentials are acquired automatically, including a browser authorization
// flow when no usable token exists.
//
// thumbnailPath may be empty. A thumbnail failure after a successful video
// upload is logged, not returned.
func Publish(ctx context.Context, videoPath string, meta Metadata, thumbnailPath string) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return PublishWithConfig(ctx, cfg, videoPath, meta, thumbnailPath)
}

// PublishWithConfig is Publish with an explicit configuration.
func PublishWithConfig(ctx context.Context, cfg *config.Config, videoPath string, meta Metadata, thumbnailPath string) (string, error) {
	uploader, err := NewUploader(cfg)
	if err != nil {
		return "", err
	}

	svc, err := uploader.GetService(ctx)
	if err != nil {
		return "", err
	}

	return uploader.UploadVideo(ctx, svc, videoPath, meta, thumbnailPath)
}

// NewUploader wires the full credential pipeline from configuration: hub
// client, encrypted vault, browser automator, uploader.
func NewUploader(cfg *config.Config) (*youtube.Uploader, error) {
	hubCfg := hub.DefaultConfig()
	hubCfg.BaseURL = cfg.HubBaseURL
	hubCfg.RepoID = cfg.HubRepoID
	hubCfg.RepoType = cfg.HubRepoType
	hubCfg.Token = cfg.HubToken
	hubCfg.Retry = retry.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
		JitterFraction: retry.DefaultConfig().JitterFraction,
	}
	remote := hub.New(hubCfg)

	store, err := vault.New(remote, cfg.EncryptionKey, cfg.EncryptPath, func(err error) bool {
		return errors.Is(err, hub.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}

	return youtube.New(cfg, store, browser.New(cfg)), nil
}
