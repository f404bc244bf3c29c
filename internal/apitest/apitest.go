// Package apitest fakes the commentThreads endpoint of the YouTube Data API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// CommentThreadsPath is the request path served by the fake.
const CommentThreadsPath = "/youtube/v3/commentThreads"

// Server is a fake Data API that records every request it receives.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	queries []url.Values
	headers []http.Header
}

// NewServer starts a fake API answering commentThreads requests with handler.
// Other paths get 404. The server is closed when the test ends.
func NewServer(t testing.TB, handler http.HandlerFunc) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.Query())
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()

		if r.URL.Path != CommentThreadsPath {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Endpoint is the base URL to configure clients with.
func (s *Server) Endpoint() string {
	return s.URL + "/"
}

// Calls returns the number of requests received.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// LastQuery returns the query of the most recent request, or nil.
func (s *Server) LastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return nil
	}
	return s.queries[len(s.queries)-1]
}

// LastHeader returns the headers of the most recent request, or nil.
func (s *Server) LastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

// Respond returns a handler writing body with the given status as JSON.
func Respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

// Sequence returns a handler that answers with each handler in turn, repeating the last.
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	i := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[i]
		if i < len(handlers)-1 {
			i++
		}
		mu.Unlock()
		h(w, r)
	}
}

// Snippet is the wire shape of a comment snippet.
type Snippet struct {
	AuthorDisplayName     string `json:"authorDisplayName"`
	AuthorProfileImageURL string `json:"authorProfileImageUrl"`
	AuthorChannelURL      string `json:"authorChannelUrl"`
	TextDisplay           string `json:"textDisplay"`
	PublishedAt           string `json:"publishedAt"`
}

// Thread describes one comment thread for ThreadsBody.
type Thread struct {
	Top     Snippet
	Replies []Snippet
}

// NewSnippet returns a snippet with plausible defaults for author n.
func NewSnippet(n int, text string) Snippet {
	return Snippet{
		AuthorDisplayName:     fmt.Sprintf("@author%d", n),
		AuthorProfileImageURL: fmt.Sprintf("https://yt3.ggpht.com/avatar%d.jpg", n),
		AuthorChannelURL:      fmt.Sprintf("http://www.youtube.com/channel/UCauthor%d", n),
		TextDisplay:           text,
		PublishedAt:           "2024-03-05T17:04:05Z",
	}
}

// GenThreads builds counts[i] replies for thread i.
func GenThreads(replyCounts ...int) []Thread {
	threads := make([]Thread, 0, len(replyCounts))
	n := 0
	for i, rc := range replyCounts {
		n++
		th := Thread{Top: NewSnippet(n, fmt.Sprintf("top comment %d", i))}
		for j := 0; j < rc; j++ {
			n++
			th.Replies = append(th.Replies, NewSnippet(n, fmt.Sprintf("reply %d to %d", j, i)))
		}
		threads = append(threads, th)
	}
	return threads
}

// ThreadsBody renders a commentThreadListResponse for threads.
func ThreadsBody(threads []Thread, nextPageToken string) string {
	type comment struct {
		Snippet Snippet `json:"snippet"`
	}
	type replies struct {
		Comments []comment `json:"comments"`
	}
	type item struct {
		Snippet struct {
			TopLevelComment comment `json:"topLevelComment"`
		} `json:"snippet"`
		Replies *replies `json:"replies,omitempty"`
	}
	resp := struct {
		Kind          string `json:"kind"`
		NextPageToken string `json:"nextPageToken,omitempty"`
		Items         []item `json:"items"`
	}{Kind: "youtube#commentThreadListResponse", NextPageToken: nextPageToken, Items: []item{}}

	for _, th := range threads {
		var it item
		it.Snippet.TopLevelComment = comment{Snippet: th.Top}
		if len(th.Replies) > 0 {
			it.Replies = &replies{}
			for _, r := range th.Replies {
				it.Replies.Comments = append(it.Replies.Comments, comment{Snippet: r})
			}
		}
		resp.Items = append(resp.Items, it)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// ErrorBody renders a Data API error body carrying message and reason.
func ErrorBody(code int, message, reason string) string {
	return fmt.Sprintf(`{"error":{"code":%d,"message":%q,"errors":[{"message":%q,"domain":"youtube.quota","reason":%q}]}}`,
		code, message, message, reason)
}
