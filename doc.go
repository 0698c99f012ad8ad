// Package ytautopub provides a library for automated YouTube publishing.
//
// It uploads videos with metadata and thumbnails, managing OAuth credentials
// automatically: encrypted storage in a remote hub repository, token refresh,
// and a browser-automated authorization flow when no usable token exists.
//
// Quick Start
//
// Publish a video with default configuration:
//
//	ctx := context.Background()
//	id, err := ytautopub.Publish(ctx, "video.mp4", ytautopub.Metadata{
//		Title:         "My Video",
//		Description:   "Recorded yesterday",
//		Tags:          []string{"demo"},
//		PrivacyStatus: "public",
//	}, "thumbnail.jpg")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("https://youtu.be/" + id)
//
// Reuse the uploader across several videos to keep the authenticated session:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	up, err := ytautopub.NewUploader(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc, err := up.GetService(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, v := range videos {
//		id, err := up.UploadVideo(ctx, svc, v.Path, v.Meta, v.Thumbnail)
//		...
//	}
//
// Configuration
//
// ytautopub uses a configuration system that loads settings from multiple
// sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (ytautopub.json or ~/.config/ytautopub/ytautopub.json)
//   3. Default values (lowest priority)
//
// Secrets come from the environment only:
//
//   - HUB_TOKEN: Access token for the credential hub repository
//   - ENCRYPT_KEY: Base64 Fernet key for credential blobs
//   - GOOGLE_EMAIL / GOOGLE_PASSWORD: Account secrets for browser login
//
// Non-secret settings use the YTAUTOPUB_ prefix:
//
//   - YTAUTOPUB_HUB_REPO_ID: Hub repository holding encrypted credentials
//   - YTAUTOPUB_ENCRYPT_PATH: Local mirror directory for credential files
//   - YTAUTOPUB_HEADLESS: Force headless browser mode (true/false)
//   - YTAUTOPUB_MAX_RETRIES: Maximum retry attempts
//   - YTAUTOPUB_INITIAL_BACKOFF: Initial retry backoff duration
//   - YTAUTOPUB_MAX_BACKOFF: Maximum retry backoff duration
//
// Credential Acquisition
//
// GetService works through an ordered chain and stops at the first success:
//
//   1. The in-memory session from a previous call
//   2. Local token files, fetched and decrypted from the hub when absent
//   3. An in-place refresh of an expired token (persisted back to the hub)
//   4. A browser-automated authorization flow, including account login and
//      two-factor handling, followed by a code exchange and persist
//
// Error Handling
//
// All operations return errors that implement standard Go error handling:
//
//	if errors.Is(err, ytautopub.ErrNoClientSecret) {
//		fmt.Println("No OAuth client descriptor found")
//	}
//
//	var upErr *ytautopub.UploadError
//	if errors.As(err, &upErr) {
//		fmt.Printf("Upload failed at %s stage: %v\n", upErr.Stage, upErr.Err)
//	}
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - youtube: Credential acquisition and resumable uploads
//   - browser: Browser-automated OAuth authorization
//   - vault: Encrypted credential storage over an object store
//   - hub: HTTP client for the remote credential repository
//   - config: Configuration management
//   - retry: Exponential backoff retry logic
//
// Dependencies
//
// The browser authorization flow requires a Chrome or Chromium binary.
// Point YTAUTOPUB_BROWSER_EXECUTABLE at it when it is not on the default
// lookup path.
package ytautopub
