// Package youtube lists comment threads for a video through the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"ytcomments/internal/metrics"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// MaxResults is the page size requested from the API. Only one page is ever fetched.
const MaxResults = 50

// DefaultEndpoint is the Data API base URL.
const DefaultEndpoint = "https://www.googleapis.com/"

const textFormatPlain = "plainText"

var commentParts = []string{"snippet", "replies"}

// CommentSnippet is the displayable part of a single comment.
type CommentSnippet struct {
	AuthorDisplayName     string `json:"author_display_name"`
	AuthorProfileImageURL string `json:"author_profile_image_url"`
	AuthorChannelURL      string `json:"author_channel_url"`
	// TextDisplay is plain text and may contain literal '<' and '>'.
	TextDisplay string `json:"text_display"`
	// PublishedAt is an ISO 8601 timestamp as returned by the API.
	PublishedAt string `json:"published_at"`
}

// CommentThread is a top-level comment plus its first-level replies, in API order.
type CommentThread struct {
	TopLevelComment CommentSnippet   `json:"top_level_comment"`
	Replies         []CommentSnippet `json:"replies,omitempty"`
}

// ResultKind tags the outcome of a listing call.
type ResultKind int

const (
	// KindSuccess carries a validated, possibly empty, list of threads.
	KindSuccess ResultKind = iota
	// KindAPIFailure is a non-2xx response from the API.
	KindAPIFailure
	// KindMalformed is a response that did not match the expected schema.
	KindMalformed
	// KindTransportFailure means the request could not complete.
	KindTransportFailure
	// KindInvalidRequest means the call was rejected before any request was sent.
	KindInvalidRequest
)

// String returns the metric/log label for the kind.
func (k ResultKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindAPIFailure:
		return "api_failure"
	case KindMalformed:
		return "malformed"
	case KindTransportFailure:
		return "transport_failure"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of ListCommentThreads.
// Threads is only meaningful for KindSuccess; Message and Err only for failures.
type Result struct {
	Kind    ResultKind
	Threads []CommentThread
	// Status is the HTTP status for KindAPIFailure.
	Status int
	// Message is safe to show to users.
	Message string
	// NextPageToken is reported but never followed.
	NextPageToken string
	Err           error
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Kind == KindSuccess
}

// Options configures a Client.
type Options struct {
	// HTTPClient is the base client; the API key is layered on per call.
	HTTPClient *http.Client
	// Endpoint is the Data API base URL (default: DefaultEndpoint).
	Endpoint string
	// Timeout bounds a single call (0 = none).
	Timeout time.Duration
	// UserAgent is appended to the API client's own User-Agent.
	UserAgent string
}

// Client lists comment threads. It holds no per-call state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	userAgent  string
}

// NewClient creates a comment-listing client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: hc,
		endpoint:   endpoint,
		timeout:    opts.Timeout,
		userAgent:  opts.UserAgent,
	}
}

// ListCommentThreads issues exactly one commentThreads.list request for videoID
// (snippet and replies, plain text, up to MaxResults threads) and returns a tagged result.
// It never retries.
func (c *Client) ListCommentThreads(ctx context.Context, apiKey, videoID string) Result {
	start := time.Now()
	res := c.list(ctx, apiKey, videoID)
	metrics.CommentFetches.WithLabelValues(res.Kind.String()).Inc()
	metrics.CommentFetchDuration.WithLabelValues(res.Kind.String()).Observe(time.Since(start).Seconds())
	return res
}

func (c *Client) list(ctx context.Context, apiKey, videoID string) Result {
	if apiKey == "" {
		return Result{Kind: KindInvalidRequest, Message: ErrMissingAPIKey.Error(), Err: ErrMissingAPIKey}
	}
	if videoID == "" {
		return Result{Kind: KindInvalidRequest, Message: ErrMissingVideoID.Error(), Err: ErrMissingVideoID}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(c.keyedClient(apiKey)),
		option.WithEndpoint(c.endpoint),
	}
	if c.userAgent != "" {
		opts = append(opts, option.WithUserAgent(c.userAgent))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		err = fmt.Errorf("create youtube service: %w", err)
		return Result{Kind: KindInvalidRequest, Message: err.Error(), Err: err}
	}
	// WithUserAgent is dropped when a custom HTTP client is supplied, and the
	// generated calls always overwrite the header, so set it on the service.
	service.UserAgent = c.userAgent

	resp, err := service.CommentThreads.List(commentParts).
		VideoId(videoID).
		MaxResults(MaxResults).
		TextFormat(textFormatPlain).
		Context(ctx).
		Do()
	if err != nil {
		return classifyError(err)
	}

	threads, err := convertThreads(resp.Items)
	if err != nil {
		return Result{Kind: KindMalformed, Message: err.Error(), Err: err}
	}

	if resp.NextPageToken != "" {
		log.Printf("youtube: video %s has more than %d comment threads, showing first page only", videoID, MaxResults)
	}

	return Result{
		Kind:          KindSuccess,
		Threads:       threads,
		NextPageToken: resp.NextPageToken,
	}
}

// keyedClient returns a copy of the base client that adds the key query parameter.
func (c *Client) keyedClient(apiKey string) *http.Client {
	hc := *c.httpClient
	hc.Transport = &transport.APIKey{Key: apiKey, Transport: c.httpClient.Transport}
	return &hc
}

// classifyError maps a failed Do() into a tagged result.
func classifyError(err error) Result {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		apiErr := &APIError{Status: gerr.Code, Message: gerr.Message}
		if apiErr.Message == "" {
			apiErr.Message = statusMessage(gerr.Code)
		}
		if len(gerr.Errors) > 0 {
			apiErr.Reason = gerr.Errors[0].Reason
		}
		return Result{Kind: KindAPIFailure, Status: gerr.Code, Message: apiErr.Message, Err: apiErr}
	}

	// url.Error includes the request URL, which carries the key.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Result{Kind: KindTransportFailure, Message: urlErr.Err.Error(), Err: urlErr.Err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Result{Kind: KindTransportFailure, Message: err.Error(), Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		wrapped := fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		return Result{Kind: KindMalformed, Message: wrapped.Error(), Err: wrapped}
	}

	return Result{Kind: KindTransportFailure, Message: err.Error(), Err: err}
}

// convertThreads validates the response items and copies them into domain types.
// Any item missing its top-level comment makes the whole response malformed.
func convertThreads(items []*youtube.CommentThread) ([]CommentThread, error) {
	threads := make([]CommentThread, 0, len(items))
	for i, item := range items {
		if item == nil || item.Snippet == nil || item.Snippet.TopLevelComment == nil ||
			item.Snippet.TopLevelComment.Snippet == nil {
			return nil, fmt.Errorf("%w: thread %d has no top-level comment snippet", ErrMalformedResponse, i)
		}

		thread := CommentThread{
			TopLevelComment: convertSnippet(item.Snippet.TopLevelComment.Snippet),
		}
		if item.Replies != nil {
			for j, reply := range item.Replies.Comments {
				if reply == nil || reply.Snippet == nil {
					return nil, fmt.Errorf("%w: thread %d reply %d has no snippet", ErrMalformedResponse, i, j)
				}
				thread.Replies = append(thread.Replies, convertSnippet(reply.Snippet))
			}
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

func convertSnippet(s *youtube.CommentSnippet) CommentSnippet {
	return CommentSnippet{
		AuthorDisplayName:     s.AuthorDisplayName,
		AuthorProfileImageURL: s.AuthorProfileImageUrl,
		AuthorChannelURL:      s.AuthorChannelUrl,
		TextDisplay:           s.TextDisplay,
		PublishedAt:           s.PublishedAt,
	}
}
