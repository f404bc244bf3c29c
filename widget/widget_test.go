package widget

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"ytcomments/internal/apitest"
	"ytcomments/render"
	"ytcomments/youtube"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostPage = `<!DOCTYPE html>
<html><head><title>Post</title></head><body>
<article><p>Post body</p></article>
<div id="yt-comments-wrapper" data-video-id="dQw4w9WgXcQ" data-api-key="test-key">
  <h3 class="yt-comments-title">Comments from YouTube</h3>
  <div id="youtube-comments-container">
    <div class="yt-comments-loader"><div class="yt-spinner"></div></div>
  </div>
</div>
</body></html>`

func parseDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func newWidget(srv *apitest.Server) *Widget {
	client := youtube.NewClient(youtube.Options{Endpoint: srv.Endpoint(), HTTPClient: &http.Client{}})
	return New(client, render.New(nil))
}

func container(doc *goquery.Document) *goquery.Selection {
	return doc.Find("#" + ContainerID)
}

func TestReadConfig(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		want   Config
		wantOK bool
	}{
		{
			name:   "complete",
			page:   hostPage,
			want:   Config{VideoID: "dQw4w9WgXcQ", APIKey: "test-key"},
			wantOK: true,
		},
		{
			name: "no wrapper",
			page: `<html><body><div id="youtube-comments-container"></div></body></html>`,
		},
		{
			name: "empty video id",
			page: `<div id="yt-comments-wrapper" data-video-id="" data-api-key="k"><div id="youtube-comments-container"></div></div>`,
		},
		{
			name: "missing api key",
			page: `<div id="yt-comments-wrapper" data-video-id="dQw4w9WgXcQ"><div id="youtube-comments-container"></div></div>`,
		},
		{
			name: "whitespace api key",
			page: `<div id="yt-comments-wrapper" data-video-id="dQw4w9WgXcQ" data-api-key="  "><div id="youtube-comments-container"></div></div>`,
		},
		{
			name: "missing container",
			page: `<div id="yt-comments-wrapper" data-video-id="dQw4w9WgXcQ" data-api-key="k"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, target, ok := ReadConfig(parseDoc(t, tt.page))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, cfg)
			if tt.wantOK {
				require.NotNil(t, target)
				assert.Equal(t, 1, target.Length())
			} else {
				assert.Nil(t, target)
			}
		})
	}
}

func TestBootstrapRendersThreads(t *testing.T) {
	threads := apitest.GenThreads(2, 0, 3, 1)
	srv := apitest.NewServer(t, apitest.Respond(http.StatusOK, apitest.ThreadsBody(threads, "")))
	doc := parseDoc(t, hostPage)

	require.True(t, newWidget(srv).Bootstrap(context.Background(), doc))
	require.Equal(t, 1, srv.Calls())
	assert.Equal(t, "dQw4w9WgXcQ", srv.LastQuery().Get("videoId"))
	assert.Equal(t, "test-key", srv.LastQuery().Get("key"))

	c := container(doc)
	assert.Equal(t, 0, c.Find(".yt-comments-loader").Length(), "loader must be replaced")

	blocks := c.Find(".yt-comment-thread")
	require.Equal(t, len(threads), blocks.Length())
	blocks.Each(func(i int, s *goquery.Selection) {
		assert.Equal(t, len(threads[i].Replies), s.Find(".yt-comment-replies .yt-comment").Length(), "thread %d", i)
		assert.Equal(t, threads[i].Top.TextDisplay, s.Children().Filter(".yt-comment").Find(".yt-comment-text").Text())
	})

	// The rest of the page is untouched.
	assert.Equal(t, "Post body", doc.Find("article p").Text())
	assert.Equal(t, "Comments from YouTube", doc.Find(".yt-comments-title").Text())
}

func TestBootstrapAbsentIsInert(t *testing.T) {
	pages := map[string]string{
		"no wrapper":        `<html><body><p>nothing here</p></body></html>`,
		"empty attributes":  `<div id="yt-comments-wrapper" data-video-id="" data-api-key=""><div id="youtube-comments-container">x</div></div>`,
		"missing container": `<div id="yt-comments-wrapper" data-video-id="dQw4w9WgXcQ" data-api-key="k"></div>`,
	}

	for name, page := range pages {
		t.Run(name, func(t *testing.T) {
			srv := apitest.NewServer(t, apitest.Respond(http.StatusOK, `{}`))
			doc := parseDoc(t, page)
			before, err := doc.Html()
			require.NoError(t, err)

			assert.NotPanics(t, func() {
				assert.False(t, newWidget(srv).Bootstrap(context.Background(), doc))
			})
			assert.Equal(t, 0, srv.Calls(), "no network call may be issued")

			after, err := doc.Html()
			require.NoError(t, err)
			assert.Equal(t, before, after, "document must not change")
		})
	}
}

func TestLoadCommentsEmpty(t *testing.T) {
	srv := apitest.NewServer(t, apitest.Respond(http.StatusOK, `{"items": []}`))
	doc := parseDoc(t, hostPage)

	newWidget(srv).LoadComments(context.Background(), "k", "dQw4w9WgXcQ", container(doc))

	c := container(doc)
	assert.Equal(t, 1, c.Find(".yt-no-comments").Length())
	assert.Equal(t, 0, c.Find(".yt-comment").Length())
	assert.Equal(t, 1, c.Children().Length())
}

func TestLoadCommentsFailures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		contains string
	}{
		{
			name:     "structured error",
			handler:  apitest.Respond(http.StatusForbidden, `{"error": {"message": "quotaExceeded"}}`),
			contains: "quotaExceeded",
		},
		{
			name:     "status only",
			handler:  apitest.Respond(http.StatusServiceUnavailable, "upstream down"),
			contains: strconv.Itoa(http.StatusServiceUnavailable),
		},
		{
			name:     "malformed",
			handler:  apitest.Respond(http.StatusOK, `{"items": [{"snippet": {}}]}`),
			contains: "malformed response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.NewServer(t, tt.handler)
			doc := parseDoc(t, hostPage)

			newWidget(srv).LoadComments(context.Background(), "k", "dQw4w9WgXcQ", container(doc))

			c := container(doc)
			notice := c.Find(".yt-error-message")
			require.Equal(t, 1, notice.Length())
			assert.Contains(t, notice.Text(), tt.contains)
			assert.Equal(t, 1, c.Children().Length(), "error replaces all prior content")
			assert.Equal(t, 0, c.Find(".yt-comment").Length())
		})
	}
}

func TestLoadCommentsTransportFailure(t *testing.T) {
	client := youtube.NewClient(youtube.Options{Endpoint: "http://127.0.0.1:1/"})
	doc := parseDoc(t, hostPage)

	New(client, nil).LoadComments(context.Background(), "k", "dQw4w9WgXcQ", container(doc))

	notice := container(doc).Find(".yt-error-message")
	require.Equal(t, 1, notice.Length())
	assert.Contains(t, notice.Text(), "Failed to load comments.")
}

func TestLoadCommentsOverwrites(t *testing.T) {
	srv := apitest.NewServer(t, apitest.Sequence(
		apitest.Respond(http.StatusOK, apitest.ThreadsBody(apitest.GenThreads(0, 1, 2), "")),
		apitest.Respond(http.StatusOK, apitest.ThreadsBody(apitest.GenThreads(4), "")),
	))
	w := newWidget(srv)
	doc := parseDoc(t, hostPage)

	w.LoadComments(context.Background(), "k", "dQw4w9WgXcQ", container(doc))
	require.Equal(t, 3, container(doc).Find(".yt-comment-thread").Length())

	w.LoadComments(context.Background(), "k", "dQw4w9WgXcQ", container(doc))
	c := container(doc)
	assert.Equal(t, 1, c.Find(".yt-comment-thread").Length())
	assert.Equal(t, 4, c.Find(".yt-comment-replies .yt-comment").Length())
	assert.Equal(t, 1, c.Find(".yt-comments-list").Length())
}

func TestLoadCommentsIdempotent(t *testing.T) {
	srv := apitest.NewServer(t, apitest.Respond(http.StatusOK, apitest.ThreadsBody(apitest.GenThreads(1, 2), "")))
	w := newWidget(srv)
	doc := parseDoc(t, hostPage)

	w.LoadComments(context.Background(), "k", "dQw4w9WgXcQ", container(doc))
	first, err := container(doc).Html()
	require.NoError(t, err)

	w.LoadComments(context.Background(), "k", "dQw4w9WgXcQ", container(doc))
	second, err := container(doc).Html()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

type stubLister struct {
	res   youtube.Result
	calls int
}

func (s *stubLister) ListCommentThreads(ctx context.Context, apiKey, videoID string) youtube.Result {
	s.calls++
	return s.res
}

func TestMarkupUsesResultMessage(t *testing.T) {
	stub := &stubLister{res: youtube.Result{Kind: youtube.KindAPIFailure, Status: 400, Message: "keyInvalid"}}
	markup := New(stub, nil).Markup(context.Background(), "k", "v")

	assert.Equal(t, 1, stub.calls)
	assert.Contains(t, markup, "keyInvalid")
	assert.Contains(t, markup, `class="yt-error-message"`)
}
