// Package youtube uploads videos to YouTube with automatic credential
// management.
//
// Credential acquisition follows an ordered chain: cached session, local
// token files (mirrored from the encrypted hub), in-place token refresh,
// and finally a full browser authorization flow. Uploads use the API's
// resumable protocol with bounded per-chunk retries.
package youtube

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"ytautopub/config"
)

// Resumable upload tuning.
const (
	// uploadChunkSize is the resumable upload chunk size.
	uploadChunkSize = 8 * 1024 * 1024
	// chunkRetryDeadline bounds retries of a single failed chunk. Earlier
	// chunks are never re-sent; the protocol resumes at the failed offset.
	chunkRetryDeadline = 2 * time.Minute
)

// UploadError indicates a video or thumbnail upload failure.
type UploadError struct {
	// Stage is "video" or "thumbnail".
	Stage string
	// Path is the local file that failed to upload.
	Path string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the upload error.
func (e *UploadError) Error() string {
	return fmt.Sprintf("youtube: upload %s %s: %v", e.Stage, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *UploadError) Unwrap() error { return e.Err }

// Uploader publishes videos with automatic credential management.
// Not safe for concurrent use: the design assumes one authorization flow
// and one upload in flight per credential pair.
type Uploader struct {
	cfg   *config.Config
	vault CredentialStore

	// Progress receives resumable upload progress. Nil logs percentages.
	Progress func(current, total int64)

	// Injectable seams for the acquisition chain; tests replace these.
	authorize    func(ctx context.Context, authURL string) (string, error)
	refreshToken func(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*oauth2.Token, error)
	exchangeCode func(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error)
	buildService func(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*youtube.Service, error)

	service *youtube.Service
}

// New creates an uploader backed by the given credential store and
// browser authorizer.
func New(cfg *config.Config, store CredentialStore, auth Authorizer) *Uploader {
	return &Uploader{
		cfg:          cfg,
		vault:        store,
		authorize:    auth.Authorize,
		refreshToken: defaultRefresh,
		exchangeCode: defaultExchange,
		buildService: defaultBuildService,
	}
}

// UploadVideo performs a resumable upload of videoPath with the given
// metadata and returns the new video's ID. When thumbnailPath is non-empty
// the thumbnail is set afterwards, best-effort: a thumbnail failure is
// logged and the video ID is still returned.
func (u *Uploader) UploadVideo(ctx context.Context, svc *youtube.Service, videoPath string, meta Metadata, thumbnailPath string) (string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return "", &UploadError{Stage: "video", Path: videoPath, Err: err}
	}
	defer f.Close()

	call := svc.Videos.Insert([]string{"snippet", "status"}, buildVideo(meta)).
		Media(f, googleapi.ChunkSize(uploadChunkSize), googleapi.ChunkRetryDeadline(chunkRetryDeadline)).
		ProgressUpdater(u.reportProgress).
		Context(ctx)

	log.Printf("youtube: uploading %s", videoPath)
	resp, err := call.Do()
	if err != nil {
		return "", &UploadError{Stage: "video", Path: videoPath, Err: err}
	}

	log.Printf("youtube: video uploaded, id %s", resp.Id)

	if thumbnailPath != "" {
		if err := u.SetThumbnail(ctx, svc, resp.Id, thumbnailPath); err != nil {
			// Partial success: a video without its thumbnail is valid.
			log.Printf("youtube: thumbnail upload failed: %v", err)
		}
	}

	return resp.Id, nil
}

// SetThumbnail sets the thumbnail for an uploaded video. Single best-effort
// call; a failure does not affect the uploaded video.
func (u *Uploader) SetThumbnail(ctx context.Context, svc *youtube.Service, videoID, thumbnailPath string) error {
	f, err := os.Open(thumbnailPath)
	if err != nil {
		return &UploadError{Stage: "thumbnail", Path: thumbnailPath, Err: err}
	}
	defer f.Close()

	_, err = svc.Thumbnails.Set(videoID).Media(f).Context(ctx).Do()
	if err != nil {
		return &UploadError{Stage: "thumbnail", Path: thumbnailPath, Err: err}
	}

	log.Printf("youtube: thumbnail set for video %s", videoID)
	return nil
}

// reportProgress forwards resumable upload progress to the configured
// callback, defaulting to percentage logs.
func (u *Uploader) reportProgress(current, total int64) {
	if u.Progress != nil {
		u.Progress(current, total)
		return
	}
	if total > 0 {
		log.Printf("youtube: uploaded %d%%", current*100/total)
	}
}
