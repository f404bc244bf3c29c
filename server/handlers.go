package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ytcomments/shortcode"
	"ytcomments/storage"
	"ytcomments/widget"
	"ytcomments/youtube"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
)

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ytcomments",
	})
}

// savedAPIKey returns the stored default key, or "" when none is set or the
// store is unavailable.
func (s *Server) savedAPIKey(c *gin.Context) string {
	if s.store == nil {
		return ""
	}
	settings, err := s.store.Get(c.Request.Context())
	if err != nil {
		log.Printf("[WARN] failed to read settings: %v", err)
		return ""
	}
	return settings.APIKey
}

// embed returns the embedding markup for ?video_url=&api_key=, the same
// output as a [youtube_comments] shortcode.
func (s *Server) embed(c *gin.Context) {
	attrs := shortcode.Attributes{
		VideoURL: strings.TrimSpace(c.Query("video_url")),
		APIKey:   strings.TrimSpace(c.Query("api_key")),
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(shortcode.Shortcode(attrs, s.savedAPIKey(c))))
}

// resolveKey picks the request's api_key or falls back to the saved key.
func (s *Server) resolveKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.Query("api_key")); key != "" {
		return key
	}
	return strings.TrimSpace(s.savedAPIKey(c))
}

// commentsFragment renders the embed for a video and runs the widget on it,
// returning the wrapper with its container already filled.
func (s *Server) commentsFragment(c *gin.Context) {
	videoID := c.Param("videoId")
	if !videoIDPattern.MatchString(videoID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}
	apiKey := s.resolveKey(c)
	if apiKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": shortcode.ErrMissingAPIKey.Error()})
		return
	}

	embed, err := shortcode.Render(widget.Config{VideoID: videoID, APIKey: apiKey})
	if err != nil {
		log.Printf("[ERROR] render embed for %s: %v", videoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render embed"})
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(embed))
	if err != nil {
		log.Printf("[ERROR] parse embed for %s: %v", videoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render embed"})
		return
	}
	s.widget.Bootstrap(c.Request.Context(), doc)

	out, err := goquery.OuterHtml(doc.Find("#" + widget.WrapperID).First())
	if err != nil {
		log.Printf("[ERROR] serialize fragment for %s: %v", videoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render comments"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// commentsJSON returns the tagged listing result for ?video_id=&api_key=.
func (s *Server) commentsJSON(c *gin.Context) {
	videoID := strings.TrimSpace(c.Query("video_id"))
	if videoID == "" {
		if raw := strings.TrimSpace(c.Query("video_url")); raw != "" {
			id, err := shortcode.ExtractVideoID(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			videoID = id
		}
	}

	res := s.lister.ListCommentThreads(c.Request.Context(), s.resolveKey(c), videoID)
	if !res.OK() {
		log.Printf("[WARN] comments for %q: %s: %v", videoID, res.Kind, res.Err)
		c.JSON(statusForResult(res), gin.H{
			"video_id": videoID,
			"kind":     res.Kind.String(),
			"status":   res.Status,
			"error":    res.Message,
		})
		return
	}

	threads := res.Threads
	if threads == nil {
		threads = []youtube.CommentThread{}
	}
	c.JSON(http.StatusOK, gin.H{
		"video_id":        videoID,
		"kind":            res.Kind.String(),
		"threads":         threads,
		"count":           len(threads),
		"next_page_token": res.NextPageToken,
	})
}

func statusForResult(res youtube.Result) int {
	switch res.Kind {
	case youtube.KindInvalidRequest:
		return http.StatusBadRequest
	case youtube.KindTransportFailure:
		if errors.Is(res.Err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

// renderPage runs the widget over a posted host page. With ?expand=1 any
// [youtube_comments] shortcodes are expanded first.
func (s *Server) renderPage(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if len(body) > maxPageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "page too large"})
		return
	}

	page := string(body)
	if c.Query("expand") == "1" || c.Query("expand") == "true" {
		page = shortcode.Expand(page, s.savedAPIKey(c))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(page)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse page"})
		return
	}
	dispatched := s.widget.Bootstrap(c.Request.Context(), doc)

	out, err := doc.Html()
	if err != nil {
		log.Printf("[ERROR] serialize page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
		return
	}
	if !dispatched {
		c.Header("X-Comments-Widget", "absent")
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

type settingsResponse struct {
	APIKey    string     `json:"api_key"`
	HasAPIKey bool       `json:"has_api_key"`
	Revision  string     `json:"revision,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func newSettingsResponse(st storage.Settings) settingsResponse {
	resp := settingsResponse{
		APIKey:    st.MaskedAPIKey(),
		HasAPIKey: st.APIKey != "",
		Revision:  st.Revision,
	}
	if !st.UpdatedAt.IsZero() {
		t := st.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

func (s *Server) getSettings(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "settings store unavailable"})
		return
	}
	st, err := s.store.Get(c.Request.Context())
	if err != nil {
		log.Printf("[ERROR] get settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read settings"})
		return
	}
	c.JSON(http.StatusOK, newSettingsResponse(st))
}

type updateSettingsRequest struct {
	APIKey *string `json:"api_key"`
}

func (s *Server) putSettings(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "settings store unavailable"})
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.APIKey == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"api_key\": \"...\"}"})
		return
	}

	st, err := s.store.SetAPIKey(c.Request.Context(), *req.APIKey)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid api key"})
			return
		}
		log.Printf("[ERROR] update settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	log.Printf("[INFO] default api key updated (revision %s)", st.Revision)
	c.JSON(http.StatusOK, newSettingsResponse(st))
}
