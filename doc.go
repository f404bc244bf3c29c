// Package ytcomments renders the YouTube comments of a video into a host page.
//
// A host page embeds the widget with a wrapper element carrying the video
// and API key, and an inner render target:
//
//	<div id="yt-comments-wrapper" data-video-id="dQw4w9WgXcQ" data-api-key="AIza...">
//	  <div id="youtube-comments-container"></div>
//	</div>
//
// Rendering fetches one page of comment threads from the YouTube Data API v3
// and replaces the render target with a comment list, a "no comments" notice,
// or an error notice. Nothing is retried.
//
// Quick Start
//
// Fill the widget of a page:
//
//	out, err := ytcomments.RenderPage(ctx, pageHTML)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Expand [youtube_comments video_url="..."] shortcodes into embedding markup:
//
//	page := ytcomments.ExpandShortcodes(content, savedAPIKey)
//
// List the threads directly:
//
//	res := ytcomments.ListComments(ctx, apiKey, "dQw4w9WgXcQ")
//	if !res.OK() {
//		fmt.Println(res.Kind, res.Message)
//	}
//
// Configuration
//
// Settings are loaded from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (ytcomments.json or ~/.config/ytcomments/ytcomments.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTCOMMENTS_LISTEN_ADDR: HTTP server address
//   - YTCOMMENTS_API_ENDPOINT: Data API base URL
//   - YTCOMMENTS_REQUEST_TIMEOUT: Timeout for a single comment fetch
//   - YTCOMMENTS_USER_AGENT: User-Agent for outbound requests
//   - YTCOMMENTS_SETTINGS_PATH: Settings file holding the default API key
//   - YTCOMMENTS_ADMIN_TOKEN: Bearer token for the admin endpoints
//   - YTCOMMENTS_DATE_LOCATION: Time zone for comment dates
//   - YTCOMMENTS_RATE_LIMIT_RPS / YTCOMMENTS_RATE_LIMIT_BURST: Per-client limits
//   - YTCOMMENTS_ALLOWED_ORIGINS: Comma-separated CORS origins
//
// Error Handling
//
// Comment listing never returns a bare error. It returns a youtube.Result
// tagged with its kind; failures carry a user-facing Message and the
// underlying Err:
//
//	var apiErr *ytcomments.APIError
//	if errors.As(res.Err, &apiErr) && apiErr.Reason == "quotaExceeded" {
//		fmt.Println("quota exhausted")
//	}
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - youtube: Comment thread listing
//   - render: Comment list, empty and error markup
//   - widget: Host page bootstrap and container updates
//   - shortcode: Shortcode parsing and embedding markup
//   - storage: Persistent settings
//   - server: HTTP host for the widget
//   - config: Configuration management
package ytcomments
