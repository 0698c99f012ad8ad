// Command ytautopub publishes a video to YouTube from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ytautopub"
)

func main() {
	video := flag.String("video", "", "path to the video file (required)")
	title := flag.String("title", "", "video title")
	description := flag.String("description", "", "video description")
	tags := flag.String("tags", "", "comma-separated video tags")
	category := flag.String("category", "", "YouTube category ID (default 22)")
	privacy := flag.String("privacy", "", "privacy status: public, unlisted or private (default private)")
	publishAt := flag.String("publish-at", "", "scheduled publish time, RFC 3339 (implies private until then)")
	thumbnail := flag.String("thumbnail", "", "path to a thumbnail image")
	madeForKids := flag.Bool("made-for-kids", false, "declare the video as made for kids")
	flag.Parse()

	if *video == "" {
		fmt.Fprintln(os.Stderr, "ytautopub: -video is required")
		flag.Usage()
		os.Exit(2)
	}

	meta := ytautopub.Metadata{
		Title:         *title,
		Description:   *description,
		CategoryID:    *category,
		PrivacyStatus: *privacy,
		MadeForKids:   *madeForKids,
	}
	if *tags != "" {
		for _, tag := range strings.Split(*tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				meta.Tags = append(meta.Tags, tag)
			}
		}
	}
	if *publishAt != "" {
		t, err := time.Parse(time.RFC3339, *publishAt)
		if err != nil {
			log.Fatalf("ytautopub: invalid -publish-at %q: %v", *publishAt, err)
		}
		meta.PublishAt = t
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, err := ytautopub.Publish(ctx, *video, meta, *thumbnail)
	if err != nil {
		log.Fatalf("ytautopub: %v", err)
	}

	fmt.Printf("https://youtu.be/%s\n", id)
}
