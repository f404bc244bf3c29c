// Package shortcode turns [youtube_comments] shortcodes into the widget's
// embedding markup.
//
// Usage in page content:
//
//	[youtube_comments video_url="https://www.youtube.com/watch?v=dQw4w9WgXcQ"]
//	[youtube_comments video_url="https://youtu.be/dQw4w9WgXcQ" api_key="AIza..."]
//
// The api_key attribute is optional; the saved default key is used when it is absent.
package shortcode

import (
	"bytes"
	"errors"
	"html/template"
	"log"
	"regexp"
	"strings"

	"ytcomments/widget"
)

// Tag is the shortcode name.
const Tag = "youtube_comments"

// Errors reported in place of the widget, with the text shown to readers.
var (
	ErrMissingVideoURL = errors.New("Please provide a video_url in the shortcode.")
	ErrMissingAPIKey   = errors.New("API key is missing. Please add it in the plugin settings or the shortcode.")
	ErrInvalidURL      = errors.New("Invalid YouTube URL provided.")
)

var videoIDRegex = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

var (
	shortcodeRegex = regexp.MustCompile(`\[` + Tag + `((?:\s+[^\]]*)?)\]`)
	attrRegex      = regexp.MustCompile(`([\w-]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+))`)
)

// ExtractVideoID returns the 11-character video identifier in a YouTube URL.
// It accepts watch?v=, youtu.be/, embed/, v/ and e/ forms.
func ExtractVideoID(rawURL string) (string, error) {
	m := videoIDRegex.FindStringSubmatch(rawURL)
	if m == nil {
		return "", ErrInvalidURL
	}
	return m[1], nil
}

// Attributes are the shortcode attributes.
type Attributes struct {
	VideoURL string
	APIKey   string
}

// ParseAttributes parses `name="value"` pairs. Unknown names are ignored.
func ParseAttributes(s string) Attributes {
	var attrs Attributes
	for _, m := range attrRegex.FindAllStringSubmatch(s, -1) {
		value := m[2] + m[3] + m[4]
		switch strings.ToLower(m[1]) {
		case "video_url":
			attrs.VideoURL = strings.TrimSpace(value)
		case "api_key":
			attrs.APIKey = strings.TrimSpace(value)
		}
	}
	return attrs
}

// Resolve validates attrs and picks the API key: the shortcode's own key wins
// over savedKey.
func Resolve(attrs Attributes, savedKey string) (widget.Config, error) {
	apiKey := attrs.APIKey
	if apiKey == "" {
		apiKey = strings.TrimSpace(savedKey)
	}

	if attrs.VideoURL == "" {
		return widget.Config{}, ErrMissingVideoURL
	}
	if apiKey == "" {
		return widget.Config{}, ErrMissingAPIKey
	}

	videoID, err := ExtractVideoID(attrs.VideoURL)
	if err != nil {
		return widget.Config{}, err
	}
	return widget.Config{VideoID: videoID, APIKey: apiKey}, nil
}

var embedTemplate = template.Must(template.New("embed").Parse(
	`<div id="{{.WrapperID}}" data-video-id="{{.VideoID}}" data-api-key="{{.APIKey}}">
    <h3 class="yt-comments-title">Comments from YouTube</h3>
    <div id="{{.ContainerID}}">
        <div class="yt-comments-loader">
            <div class="yt-spinner"></div>
        </div>
    </div>
</div>`))

var errorTemplate = template.Must(template.New("error").Parse(`<p>Error: {{.}}</p>`))

// Render returns the embedding markup for cfg: the wrapper carrying the data
// attributes and an empty render target with a loading placeholder.
func Render(cfg widget.Config) (string, error) {
	data := struct {
		WrapperID, ContainerID, VideoID, APIKey string
	}{widget.WrapperID, widget.ContainerID, cfg.VideoID, cfg.APIKey}

	var buf bytes.Buffer
	if err := embedTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderError returns the inline error paragraph shown instead of the widget.
func RenderError(err error) string {
	var buf bytes.Buffer
	if execErr := errorTemplate.Execute(&buf, err.Error()); execErr != nil {
		return "<p>Error</p>"
	}
	return buf.String()
}

// Shortcode resolves attrs and returns either the embedding markup or an error paragraph.
func Shortcode(attrs Attributes, savedKey string) string {
	cfg, err := Resolve(attrs, savedKey)
	if err != nil {
		return RenderError(err)
	}
	out, err := Render(cfg)
	if err != nil {
		log.Printf("shortcode: render embed for %s: %v", cfg.VideoID, err)
		return RenderError(err)
	}
	return out
}

// Expand replaces every [youtube_comments ...] shortcode in content.
func Expand(content, savedKey string) string {
	return shortcodeRegex.ReplaceAllStringFunc(content, func(match string) string {
		inner := shortcodeRegex.FindStringSubmatch(match)[1]
		return Shortcode(ParseAttributes(inner), savedKey)
	})
}
