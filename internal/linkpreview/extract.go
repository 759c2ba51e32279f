// Package linkpreview fetches a page and extracts the metadata clients render
// as a link card: title, description, image and favicon. Results are cached
// in the store for a year since page metadata rarely changes and refetching
// on every message render is wasteful.
package linkpreview

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/html"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
)

const (
	metadataTTL  = 365 * 24 * time.Hour
	fetchTimeout = 5 * time.Second
)

// Metadata is the link card payload.
type Metadata struct {
	URL         string `json:"url" msgpack:"url"`
	Title       string `json:"title" msgpack:"title"`
	Description string `json:"description" msgpack:"description"`
	Image       string `json:"image" msgpack:"image"`
	Favicon     string `json:"favicon" msgpack:"favicon"`
}

type Extractor struct {
	store  store.Store
	client *http.Client
}

func NewExtractor(s store.Store) *Extractor {
	return &Extractor{
		store:  s,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

func metadataKey(messageID, rawURL string) string {
	return fmt.Sprintf("metadata:%s-%s", messageID, rawURL)
}

// Extract returns the page's metadata, from cache when available. The cache
// key includes the requesting message id, matching what clients look up.
func (e *Extractor) Extract(messageID, rawURL string) (Metadata, error) {
	key := metadataKey(messageID, rawURL)
	if cached, err := e.store.Get(key); err == nil && cached != nil {
		var meta Metadata
		if err := msgpack.Unmarshal(cached, &meta); err == nil {
			return meta, nil
		}
		log.Printf("Error decoding cached metadata for %s, refetching", rawURL)
	}

	meta, err := e.fetch(rawURL)
	if err != nil {
		return Metadata{}, err
	}

	encoded, err := msgpack.Marshal(meta)
	if err != nil {
		log.Printf("Error encoding metadata for %s: %v", rawURL, err)
		return meta, nil
	}
	if err := e.store.Set(key, encoded, metadataTTL); err != nil {
		log.Printf("Error caching metadata for %s: %v", rawURL, err)
	}
	return meta, nil
}

func (e *Extractor) fetch(rawURL string) (Metadata, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	// Some sites serve stripped-down markup to unknown agents.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; rooms-backend/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Metadata{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return Metadata{}, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return ParseMetadata(rawURL, root), nil
}

// ParseMetadata walks the document collecting Open Graph tags first, with
// plain title/description/icon tags as fallbacks.
func ParseMetadata(rawURL string, root *html.Node) Metadata {
	meta := Metadata{URL: rawURL}
	var plainTitle, plainDescription string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					plainTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				property := attr(n, "property")
				name := attr(n, "name")
				content := attr(n, "content")
				switch {
				case property == "og:title":
					meta.Title = content
				case property == "og:description":
					meta.Description = content
				case property == "og:image":
					meta.Image = resolveRef(rawURL, content)
				case name == "description":
					plainDescription = content
				}
			case "link":
				rel := attr(n, "rel")
				if strings.Contains(rel, "icon") && meta.Favicon == "" {
					meta.Favicon = resolveRef(rawURL, attr(n, "href"))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if meta.Title == "" {
		meta.Title = plainTitle
	}
	if meta.Description == "" {
		meta.Description = plainDescription
	}
	return meta
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// resolveRef turns protocol-relative and page-relative references into
// absolute URLs.
func resolveRef(pageURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() {
		return ref
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	return base.ResolveReference(refURL).String()
}
