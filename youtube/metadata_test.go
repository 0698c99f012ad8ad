package youtube

import (
	"strings"
	"testing"
	"time"
)

func TestBuildVideoDefaults(t *testing.T) {
	video := buildVideo(Metadata{Title: "My Video"})

	if video.Snippet.Title != "My Video" {
		t.Errorf("Title = %q, want %q", video.Snippet.Title, "My Video")
	}
	if video.Snippet.CategoryId != "22" {
		t.Errorf("CategoryId = %q, want default %q", video.Snippet.CategoryId, "22")
	}
	if video.Status.PrivacyStatus != "private" {
		t.Errorf("PrivacyStatus = %q, want default %q", video.Status.PrivacyStatus, "private")
	}
	if video.Status.PublishAt != "" {
		t.Errorf("PublishAt = %q, want empty", video.Status.PublishAt)
	}
}

func TestBuildVideoFullMetadata(t *testing.T) {
	publishAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	meta := Metadata{
		Title:         "Title",
		Description:   "Description",
		Tags:          []string{"a", "b"},
		CategoryID:    "10",
		PrivacyStatus: "public",
		MadeForKids:   true,
		PublishAt:     publishAt,
	}

	video := buildVideo(meta)

	if video.Snippet.CategoryId != "10" {
		t.Errorf("CategoryId = %q, want %q", video.Snippet.CategoryId, "10")
	}
	if len(video.Snippet.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 entries", video.Snippet.Tags)
	}
	if video.Status.PrivacyStatus != "public" {
		t.Errorf("PrivacyStatus = %q, want %q", video.Status.PrivacyStatus, "public")
	}
	if !video.Status.MadeForKids || !video.Status.SelfDeclaredMadeForKids {
		t.Error("MadeForKids flags not set")
	}
	if video.Status.PublishAt != "2026-09-01T12:00:00Z" {
		t.Errorf("PublishAt = %q, want %q", video.Status.PublishAt, "2026-09-01T12:00:00Z")
	}
}

func TestBuildVideoTruncatesTitle(t *testing.T) {
	long := strings.Repeat("x", 150)
	video := buildVideo(Metadata{Title: long})

	if got := len([]rune(video.Snippet.Title)); got != maxTitleLen {
		t.Errorf("truncated title length = %d, want %d", got, maxTitleLen)
	}
}

func TestTruncateMultibyte(t *testing.T) {
	// Truncation counts runes, not bytes.
	title := strings.Repeat("ü", 120)
	got := truncate(title, maxTitleLen)
	if len([]rune(got)) != maxTitleLen {
		t.Errorf("truncate() kept %d runes, want %d", len([]rune(got)), maxTitleLen)
	}
	if strings.Contains(got, "�") {
		t.Error("truncate() split a multibyte rune")
	}
}
