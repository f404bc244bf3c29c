package ytcomments

import (
	"context"
	"fmt"
	"strings"

	"ytcomments/config"
	xhttp "ytcomments/http"
	"ytcomments/render"
	"ytcomments/shortcode"
	"ytcomments/widget"
	"ytcomments/youtube"

	"github.com/PuerkitoBio/goquery"
)

// NewWidget builds a widget from cfg: an API client using cfg's endpoint,
// timeout and user agent, and a renderer in cfg's date location.
func NewWidget(cfg *config.Config) (*widget.Widget, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return widget.New(NewClient(cfg), render.New(loc)), nil
}

// NewClient builds a Data API client from cfg. It never retries.
func NewClient(cfg *config.Config) *youtube.Client {
	httpCfg := xhttp.DefaultConfig()
	httpCfg.UserAgent = cfg.UserAgent
	return youtube.NewClient(youtube.Options{
		HTTPClient: xhttp.New(httpCfg),
		Endpoint:   cfg.APIEndpoint,
		Timeout:    cfg.RequestTimeout,
		UserAgent:  cfg.UserAgent,
	})
}

// RenderPage runs the widget over an HTML page using the loaded configuration
// and returns the resulting page. A page without a configured widget is
// returned re-serialized but otherwise unchanged.
func RenderPage(ctx context.Context, page string) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	w, err := NewWidget(cfg)
	if err != nil {
		return "", err
	}
	return RenderPageWith(ctx, w, page)
}

// RenderPageWith is RenderPage with a caller-supplied widget.
func RenderPageWith(ctx context.Context, w *widget.Widget, page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	w.Bootstrap(ctx, doc)
	return doc.Html()
}

// ExpandShortcodes replaces [youtube_comments ...] shortcodes in content with
// embedding markup. savedAPIKey is used when a shortcode has no api_key.
func ExpandShortcodes(content, savedAPIKey string) string {
	return shortcode.Expand(content, savedAPIKey)
}

// ListComments fetches one page of comment threads with the default configuration.
func ListComments(ctx context.Context, apiKey, videoID string) youtube.Result {
	cfg, err := config.Load()
	if err != nil {
		return youtube.Result{Kind: youtube.KindInvalidRequest, Message: err.Error(), Err: err}
	}
	return NewClient(cfg).ListCommentThreads(ctx, apiKey, videoID)
}
