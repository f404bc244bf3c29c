// Package render turns comment threads into the widget's HTML markup.
//
// All dynamic values go through html/template, so comment text is always
// inserted as literal text: '<' and '>' become &lt; and &gt;.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"ytcomments/youtube"
)

// User-visible notices.
const (
	NoCommentsMessage = "No comments found for this video."
	errorPrefix       = "Failed to load comments. Check API key and shortcode. Error: "
)

// DateLayout formats publication dates in the en-US long form ("March 5, 2024").
const DateLayout = "January 2, 2006"

var listTemplate = template.Must(template.New("list").Parse(
	`<div class="yt-comments-list">` +
		`{{range .}}<div class="yt-comment-thread">{{template "comment" .Top}}` +
		`{{if .Replies}}<div class="yt-comment-replies">{{range .Replies}}{{template "comment" .}}{{end}}</div>{{end}}` +
		`</div>{{end}}` +
		`</div>` +
		`{{define "comment"}}<div class="yt-comment">` +
		`<img src="{{.AvatarURL}}" alt="" class="yt-author-avatar">` +
		`<div class="yt-comment-content">` +
		`<div class="yt-comment-header">` +
		`<a href="{{.ChannelURL}}" target="_blank" rel="noopener" class="yt-author-name">{{.Author}}</a>` +
		`<span class="yt-comment-date">{{.Date}}</span>` +
		`</div>` +
		`<p class="yt-comment-text">{{.Text}}</p>` +
		`</div>` +
		`</div>{{end}}`,
))

var emptyTemplate = template.Must(template.New("empty").Parse(
	`<p class="yt-no-comments">{{.}}</p>`,
))

var errorTemplate = template.Must(template.New("error").Parse(
	`<div class="yt-error-message"><p>{{.}}</p></div>`,
))

type commentView struct {
	Author     string
	AvatarURL  string
	ChannelURL string
	Date       string
	Text       string
}

type threadView struct {
	Top     commentView
	Replies []commentView
}

// Renderer builds comment markup. The zero value formats dates in UTC.
type Renderer struct {
	// Location is the time zone dates are shown in.
	Location *time.Location
}

// New creates a renderer formatting dates in loc (nil = UTC).
func New(loc *time.Location) *Renderer {
	return &Renderer{Location: loc}
}

// Threads renders the full comment list. An empty slice renders the
// "no comments" notice instead.
func (r *Renderer) Threads(threads []youtube.CommentThread) (string, error) {
	if len(threads) == 0 {
		return r.Empty(), nil
	}

	views := make([]threadView, 0, len(threads))
	for _, th := range threads {
		v := threadView{Top: r.comment(th.TopLevelComment)}
		for _, reply := range th.Replies {
			v.Replies = append(v.Replies, r.comment(reply))
		}
		views = append(views, v)
	}

	var buf bytes.Buffer
	if err := listTemplate.Execute(&buf, views); err != nil {
		return "", fmt.Errorf("render comments: %w", err)
	}
	return buf.String(), nil
}

// Empty renders the single "no comments" notice.
func (r *Renderer) Empty() string {
	return mustExecute(emptyTemplate, NoCommentsMessage)
}

// Error renders a single error notice carrying message.
func (r *Renderer) Error(message string) string {
	return mustExecute(errorTemplate, errorPrefix+message)
}

func (r *Renderer) comment(s youtube.CommentSnippet) commentView {
	return commentView{
		Author:     s.AuthorDisplayName,
		AvatarURL:  s.AuthorProfileImageURL,
		ChannelURL: s.AuthorChannelURL,
		Date:       r.FormatDate(s.PublishedAt),
		Text:       s.TextDisplay,
	}
}

// FormatDate formats an ISO 8601 timestamp as "January 2, 2006" in the
// renderer's location. Unparseable input is returned unchanged.
func (r *Renderer) FormatDate(publishedAt string) string {
	t, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return publishedAt
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// mustExecute runs a template over a plain string, which cannot fail.
func mustExecute(t *template.Template, data string) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.String()
}
