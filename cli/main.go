package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"ytcomments"
	"ytcomments/config"
	"ytcomments/render"
	"ytcomments/server"
	"ytcomments/shortcode"
	"ytcomments/storage"
	"ytcomments/widget"
	"ytcomments/youtube"

	"github.com/PuerkitoBio/goquery"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "render":
		cmdRender(args)
	case "comments":
		cmdComments(args)
	case "embed":
		cmdEmbed(args)
	case "serve":
		cmdServe(args)
	case "settings":
		cmdSettings(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytcomments - YouTube comments widget

Usage:
  ytcomments render [flags] [file]          Fill the comments container of an HTML page
  ytcomments comments [flags] <video>       List comment threads of a video
  ytcomments embed [flags] <video-url>      Print the embedding markup for a video
  ytcomments serve [flags]                  Run the HTTP server
  ytcomments settings get|set [api-key]     Show or change the default API key
  ytcomments help                           Show this help message

Examples:
  ytcomments render page.html > out.html                   # Render a host page
  cat post.html | ytcomments render -expand                # Expand shortcodes, then render
  ytcomments comments dQw4w9WgXcQ --key AIza...            # Comments as a table
  ytcomments comments https://youtu.be/dQw4w9WgXcQ --json  # Comments as JSON
  ytcomments embed https://youtu.be/dQw4w9WgXcQ            # Markup using the saved key
  ytcomments serve --addr :9090                            # Serve on another port
  ytcomments settings set AIza...                          # Save the default API key

For help on specific command: ytcomments <command> -h
`)
}

// loadConfig loads configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newRenderer(cfg *config.Config) *render.Renderer {
	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return render.New(loc)
}

func openStore(cfg *config.Config) *storage.JSONStore {
	store, err := storage.NewJSONStore(cfg.SettingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening settings %s: %v\n", cfg.SettingsPath, err)
		os.Exit(1)
	}
	return store
}

// savedKey returns the stored default API key, or "" if none can be read.
// It never locks or creates the settings file, so it works while serve runs.
func savedKey(cfg *config.Config) string {
	st, err := storage.ReadSettings(cfg.SettingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read settings: %v\n", err)
		return ""
	}
	return st.APIKey
}

func cmdRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	expand := fs.Bool("expand", false, "Expand [youtube_comments] shortcodes before rendering")
	output := fs.String("o", "", "Write the page to this file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytcomments render [flags] [file]\n\nReads stdin when no file is given.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg := loadConfig()

	var in io.Reader = os.Stdin
	if argv := fs.Args(); len(argv) > 0 && argv[0] != "-" {
		f, err := os.Open(argv[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening page: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	page, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading page: %v\n", err)
		os.Exit(1)
	}

	content := string(page)
	if *expand {
		content = shortcode.Expand(content, savedKey(cfg))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing page: %v\n", err)
		os.Exit(1)
	}

	w := widget.New(ytcomments.NewClient(cfg), newRenderer(cfg))
	if !w.Bootstrap(context.Background(), doc) {
		fmt.Fprintf(os.Stderr, "No configured comments widget found; page left unchanged.\n")
	}

	out, err := doc.Html()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error serializing page: %v\n", err)
		os.Exit(1)
	}

	if *output == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(*output, []byte(out), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Page written to: %s\n", *output)
}

func cmdComments(args []string) {
	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	apiKey := fs.String("key", "", "YouTube Data API v3 key (default: saved key)")
	asJSON := fs.Bool("json", false, "Print threads as JSON")
	asHTML := fs.Bool("html", false, "Print the rendered widget markup")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytcomments comments [flags] <video-id|video-url>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video\n")
		fs.Usage()
		os.Exit(1)
	}

	videoID := argv[0]
	if strings.Contains(videoID, "/") {
		id, err := shortcode.ExtractVideoID(videoID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		videoID = id
	}

	cfg := loadConfig()
	key := *apiKey
	if key == "" {
		key = savedKey(cfg)
	}

	ctx := context.Background()
	client := ytcomments.NewClient(cfg)

	if *asHTML {
		w := widget.New(client, newRenderer(cfg))
		fmt.Println(w.Markup(ctx, key, videoID))
		return
	}

	fmt.Fprintf(os.Stderr, "Fetching comments for %s...\n", videoID)
	res := client.ListCommentThreads(ctx, key, videoID)
	if !res.OK() {
		fmt.Fprintf(os.Stderr, "Error fetching comments (%s): %s\n", res.Kind, res.Message)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Threads); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding comments: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(res.Threads) == 0 {
		fmt.Println(render.NoCommentsMessage)
		return
	}

	renderer := newRenderer(cfg)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AUTHOR\tDATE\tREPLIES\tTEXT")
	for _, th := range res.Threads {
		c := th.TopLevelComment
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			truncate(c.AuthorDisplayName, 24),
			renderer.FormatDate(c.PublishedAt),
			len(th.Replies),
			truncate(oneLine(c.TextDisplay), 60),
		)
	}
	w.Flush()

	total := len(res.Threads)
	for _, th := range res.Threads {
		total += len(th.Replies)
	}
	fmt.Fprintf(os.Stderr, "\nTotal: %d threads, %d comments\n", len(res.Threads), total)
	if res.NextPageToken != "" {
		fmt.Fprintf(os.Stderr, "More threads exist; only the first %d are shown.\n", youtube.MaxResults)
	}
}

func cmdEmbed(args []string) {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	apiKey := fs.String("key", "", "API key to embed (default: saved key)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytcomments embed [flags] <video-url>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video-url\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	attrs := shortcode.Attributes{VideoURL: argv[0], APIKey: *apiKey}
	saved := savedKey(cfg)
	if _, err := shortcode.Resolve(attrs, saved); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(shortcode.Shortcode(attrs, saved))
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default: from config)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytcomments serve [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg := loadConfig()
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if cfg.AdminToken == "" {
		fmt.Fprintf(os.Stderr, "Warning: YTCOMMENTS_ADMIN_TOKEN not set, admin endpoints disabled\n")
	}

	store := openStore(cfg)
	defer store.Close()

	srv := server.New(cfg, ytcomments.NewClient(cfg), newRenderer(cfg), store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error running server: %v\n", err)
		os.Exit(1)
	}
}

func cmdSettings(args []string) {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytcomments settings get\n       ytcomments settings set <api-key>\n\nAn empty api-key clears the saved key.\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		st  storage.Settings
		err error
	)
	switch argv[0] {
	case "get":
		st, err = store.Get(ctx)
	case "set":
		key := ""
		if len(argv) > 1 {
			key = argv[1]
		}
		st, err = store.SetAPIKey(ctx, key)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown settings action %q\n", argv[0])
		fs.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Settings file: %s\n", cfg.SettingsPath)
	if st.APIKey == "" {
		fmt.Println("API key:       (not set)")
		return
	}
	fmt.Printf("API key:       %s\n", st.MaskedAPIKey())
	fmt.Printf("Revision:      %s\n", st.Revision)
	fmt.Printf("Updated:       %s\n", st.UpdatedAt.Format(time.RFC3339))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
