// Package widget locates the comments container in a host page and fills it
// with the comment threads of the configured video.
//
// A host page embeds the widget as
//
//	<div id="yt-comments-wrapper" data-video-id="..." data-api-key="...">
//	  <div id="youtube-comments-container">...</div>
//	</div>
//
// Bootstrap runs once per page. LoadComments replaces the container's content
// with a comment list, a "no comments" notice, or an error notice.
package widget

import (
	"context"
	"log"
	"strings"

	"ytcomments/internal/metrics"
	"ytcomments/render"
	"ytcomments/youtube"

	"github.com/PuerkitoBio/goquery"
)

// Reserved element identifiers and attributes of the embedding contract.
const (
	WrapperID      = "yt-comments-wrapper"
	ContainerID    = "youtube-comments-container"
	VideoIDAttr    = "data-video-id"
	APIKeyAttr     = "data-api-key"
	wrapperQuery   = "#" + WrapperID
	containerQuery = "#" + ContainerID
)

// Config is the widget configuration read from the wrapper element.
// It is only ever constructed with both fields non-empty.
type Config struct {
	VideoID string
	APIKey  string
}

// CommentLister fetches one page of comment threads.
type CommentLister interface {
	ListCommentThreads(ctx context.Context, apiKey, videoID string) youtube.Result
}

// Widget wires a comment lister to a renderer.
type Widget struct {
	lister   CommentLister
	renderer *render.Renderer
}

// New creates a widget. A nil renderer formats dates in UTC.
func New(lister CommentLister, renderer *render.Renderer) *Widget {
	if renderer == nil {
		renderer = render.New(nil)
	}
	return &Widget{lister: lister, renderer: renderer}
}

// ReadConfig extracts the widget configuration and the render target from doc.
// ok is false when the wrapper is absent, either attribute is empty, or the
// render target is missing; none of these are errors.
func ReadConfig(doc *goquery.Document) (cfg Config, container *goquery.Selection, ok bool) {
	wrapper := doc.Find(wrapperQuery).First()
	if wrapper.Length() == 0 {
		return Config{}, nil, false
	}

	videoID := strings.TrimSpace(wrapper.AttrOr(VideoIDAttr, ""))
	apiKey := strings.TrimSpace(wrapper.AttrOr(APIKeyAttr, ""))
	container = doc.Find(containerQuery).First()

	if videoID == "" || apiKey == "" || container.Length() == 0 {
		return Config{}, nil, false
	}
	return Config{VideoID: videoID, APIKey: apiKey}, container, true
}

// Bootstrap is the page entry point. It reads the configuration from doc and,
// when complete, loads comments into the render target. It reports whether
// a load was dispatched.
func (w *Widget) Bootstrap(ctx context.Context, doc *goquery.Document) bool {
	cfg, container, ok := ReadConfig(doc)
	if !ok {
		metrics.WidgetBootstraps.WithLabelValues("absent").Inc()
		return false
	}
	metrics.WidgetBootstraps.WithLabelValues("dispatched").Inc()
	w.LoadComments(ctx, cfg.APIKey, cfg.VideoID, container)
	return true
}

// LoadComments fetches the comment threads of videoID and replaces the
// content of container with the result in a single update. Failures are
// rendered as an error notice and logged; they are never returned.
func (w *Widget) LoadComments(ctx context.Context, apiKey, videoID string, container *goquery.Selection) {
	container.SetHtml(w.Markup(ctx, apiKey, videoID))
}

// Markup fetches the comment threads of videoID and returns the markup that
// LoadComments would place in the container.
func (w *Widget) Markup(ctx context.Context, apiKey, videoID string) string {
	res := w.lister.ListCommentThreads(ctx, apiKey, videoID)
	if !res.OK() {
		log.Printf("widget: error fetching comments for %s (%s): %v", videoID, res.Kind, res.Err)
		metrics.WidgetRenders.WithLabelValues("error").Inc()
		return w.renderer.Error(res.Message)
	}

	if len(res.Threads) == 0 {
		metrics.WidgetRenders.WithLabelValues("empty").Inc()
		return w.renderer.Empty()
	}

	markup, err := w.renderer.Threads(res.Threads)
	if err != nil {
		log.Printf("widget: error rendering comments for %s: %v", videoID, err)
		metrics.WidgetRenders.WithLabelValues("error").Inc()
		return w.renderer.Error(err.Error())
	}
	metrics.WidgetRenders.WithLabelValues("list").Inc()
	return markup
}
