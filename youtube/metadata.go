package youtube

import (
	"time"

	"google.golang.org/api/youtube/v3"
)

// YouTube caps video titles at 100 characters.
const maxTitleLen = 100

// Metadata describes a video to publish. Value object, constructed by the
// caller and consumed once per upload.
type Metadata struct {
	// Title is the video title (truncated to 100 characters)
	Title string
	// Description is the video description
	Description string
	// Tags are the video tags
	Tags []string
	// CategoryID is the YouTube category (default "22", People & Blogs)
	CategoryID string
	// PrivacyStatus is "public", "private", or "unlisted" (default "private")
	PrivacyStatus string
	// MadeForKids marks the video as made for kids
	MadeForKids bool
	// PublishAt schedules publication; zero means publish per privacy status
	PublishAt time.Time
}

// buildVideo converts the metadata into the API request body.
func buildVideo(meta Metadata) *youtube.Video {
	category := meta.CategoryID
	if category == "" {
		category = "22"
	}
	privacy := meta.PrivacyStatus
	if privacy == "" {
		privacy = "private"
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			CategoryId:  category,
			Title:       truncate(meta.Title, maxTitleLen),
			Description: meta.Description,
			Tags:        meta.Tags,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           privacy,
			MadeForKids:             meta.MadeForKids,
			SelfDeclaredMadeForKids: meta.MadeForKids,
		},
	}

	if !meta.PublishAt.IsZero() {
		video.Status.PublishAt = meta.PublishAt.Format(time.RFC3339)
	}

	return video
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
