package youtube

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// fakeAPI serves the YouTube upload endpoints: the resumable session
// handshake for videos and the multipart endpoint for thumbnails.
type fakeAPI struct {
	mux *http.ServeMux

	videoBody      []byte
	rejectVideo    bool
	thumbStatus    int
	thumbnailCalls int
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{mux: http.NewServeMux(), thumbStatus: http.StatusOK}

	f.mux.HandleFunc("/upload/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		if f.rejectVideo {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"error":{"code":403,"message":"quotaExceeded"}}`)
			return
		}
		// Resumable session start: hand back the upload URL.
		w.Header().Set("Location", "http://"+r.Host+"/upload-session")
		w.WriteHeader(http.StatusOK)
	})

	f.mux.HandleFunc("/upload-session", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.videoBody = append(f.videoBody, body...)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"vid-123"}`)
	})

	f.mux.HandleFunc("/upload/youtube/v3/thumbnails/set", func(w http.ResponseWriter, r *http.Request) {
		f.thumbnailCalls++
		if f.thumbStatus != http.StatusOK {
			w.WriteHeader(f.thumbStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[]}`)
	})

	return f
}

func newFakeService(t *testing.T, api *fakeAPI) *youtube.Service {
	t.Helper()
	server := httptest.NewServer(api.mux)
	t.Cleanup(server.Close)

	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("create service against fake API: %v", err)
	}
	return svc
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadVideoSuccess(t *testing.T) {
	api := newFakeAPI()
	svc := newFakeService(t, api)
	videoPath := writeTempFile(t, "video.mp4", "fake video bytes")

	var progressCalls int
	u := &Uploader{Progress: func(current, total int64) { progressCalls++ }}

	id, err := u.UploadVideo(context.Background(), svc, videoPath, Metadata{Title: "T"}, "")
	if err != nil {
		t.Fatalf("UploadVideo() returned error: %v", err)
	}
	if id != "vid-123" {
		t.Errorf("UploadVideo() = %q, want %q", id, "vid-123")
	}
	if !strings.Contains(string(api.videoBody), "fake video bytes") {
		t.Error("server did not receive the media bytes")
	}
	if progressCalls == 0 {
		t.Error("progress callback never invoked")
	}
	if api.thumbnailCalls != 0 {
		t.Errorf("thumbnail endpoint called %d times, want 0", api.thumbnailCalls)
	}
}

func TestUploadVideoWithThumbnail(t *testing.T) {
	api := newFakeAPI()
	svc := newFakeService(t, api)
	videoPath := writeTempFile(t, "video.mp4", "content")
	thumbPath := writeTempFile(t, "thumb.jpg", "jpeg bytes")

	u := &Uploader{}
	id, err := u.UploadVideo(context.Background(), svc, videoPath, Metadata{Title: "T"}, thumbPath)
	if err != nil {
		t.Fatalf("UploadVideo() returned error: %v", err)
	}
	if id != "vid-123" {
		t.Errorf("UploadVideo() = %q, want %q", id, "vid-123")
	}
	if api.thumbnailCalls != 1 {
		t.Errorf("thumbnail endpoint called %d times, want 1", api.thumbnailCalls)
	}
}

// A thumbnail failure after a successful video upload is partial success:
// the video ID is still returned.
func TestUploadVideoThumbnailFailureNonFatal(t *testing.T) {
	api := newFakeAPI()
	api.thumbStatus = http.StatusNotFound
	svc := newFakeService(t, api)
	videoPath := writeTempFile(t, "video.mp4", "content")
	thumbPath := writeTempFile(t, "thumb.jpg", "jpeg bytes")

	u := &Uploader{}
	id, err := u.UploadVideo(context.Background(), svc, videoPath, Metadata{Title: "T"}, thumbPath)
	if err != nil {
		t.Fatalf("UploadVideo() returned error: %v, want nil despite thumbnail failure", err)
	}
	if id != "vid-123" {
		t.Errorf("UploadVideo() = %q, want %q", id, "vid-123")
	}
	if api.thumbnailCalls != 1 {
		t.Errorf("thumbnail endpoint called %d times, want 1", api.thumbnailCalls)
	}
}

func TestUploadVideoFailureSurfaces(t *testing.T) {
	api := newFakeAPI()
	api.rejectVideo = true
	svc := newFakeService(t, api)
	videoPath := writeTempFile(t, "video.mp4", "content")

	u := &Uploader{}
	_, err := u.UploadVideo(context.Background(), svc, videoPath, Metadata{Title: "T"}, "")

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("UploadVideo() returned %T (%v), want *UploadError", err, err)
	}
	if upErr.Stage != "video" {
		t.Errorf("UploadError.Stage = %q, want %q", upErr.Stage, "video")
	}
}

func TestUploadVideoMissingFile(t *testing.T) {
	u := &Uploader{}
	_, err := u.UploadVideo(context.Background(), nil, "/does/not/exist.mp4", Metadata{}, "")

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("UploadVideo() returned %T, want *UploadError", err)
	}
}

func TestSetThumbnailError(t *testing.T) {
	api := newFakeAPI()
	api.thumbStatus = http.StatusNotFound
	svc := newFakeService(t, api)
	thumbPath := writeTempFile(t, "thumb.jpg", "jpeg bytes")

	u := &Uploader{}
	err := u.SetThumbnail(context.Background(), svc, "vid-123", thumbPath)

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("SetThumbnail() returned %T, want *UploadError", err)
	}
	if upErr.Stage != "thumbnail" {
		t.Errorf("UploadError.Stage = %q, want %q", upErr.Stage, "thumbnail")
	}
}
