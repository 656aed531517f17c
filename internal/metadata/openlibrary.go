// Package metadata fills in missing catalog fields from the OpenLibrary
// API: author, description, publication year and a cover image URL.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// BookMetadata contains enriched book information from OpenLibrary.
type BookMetadata struct {
	Title           string `json:"title,omitempty"`
	Author          string `json:"author,omitempty"`
	CoverURL        string `json:"cover_url,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	Description     string `json:"description,omitempty"`
	OpenLibraryKey  string `json:"open_library_key,omitempty"`
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	coversURL   string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates a new OpenLibrary API client with rate limiting.
func NewOpenLibraryClient() *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     "https://openlibrary.org",
		coversURL:   "https://covers.openlibrary.org",
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

type openLibrarySearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverI           int      `json:"cover_i"`
}

type openLibrarySearchResult struct {
	Docs []openLibrarySearchDoc `json:"docs"`
}

// SearchByTitle looks up a book by title and author, returning the best match.
func (c *OpenLibraryClient) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	c.rateLimiter.wait()

	q := title
	if author != "" {
		q = fmt.Sprintf("%s %s", title, author)
	}

	searchURL := fmt.Sprintf("%s/search.json?q=%s&limit=5", c.baseURL, url.QueryEscape(q))
	var searchResult openLibrarySearchResult
	if err := c.getJSON(ctx, searchURL, &searchResult); err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	if len(searchResult.Docs) == 0 {
		return nil, fmt.Errorf("no results found for: %s", title)
	}

	bestDoc := c.findBestMatch(searchResult.Docs, title, author)

	metadata := &BookMetadata{
		Title:           bestDoc.Title,
		PublicationYear: bestDoc.FirstPublishYear,
		OpenLibraryKey:  bestDoc.Key,
	}
	if len(bestDoc.AuthorName) > 0 {
		metadata.Author = bestDoc.AuthorName[0]
	}
	if bestDoc.CoverI != 0 {
		metadata.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversURL, bestDoc.CoverI)
	}

	// The search response carries no description; that lives on the work.
	if bestDoc.Key != "" {
		if description, err := c.fetchWorkDescription(ctx, bestDoc.Key); err == nil {
			metadata.Description = description
		}
	}

	return metadata, nil
}

func (c *OpenLibraryClient) findBestMatch(docs []openLibrarySearchDoc, title, author string) *openLibrarySearchDoc {
	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	var bestMatch *openLibrarySearchDoc
	bestScore := -1

	for i := range docs {
		doc := &docs[i]
		score := 0

		// Exact title match
		if strings.ToLower(doc.Title) == titleLower {
			score += 10
		} else if strings.Contains(strings.ToLower(doc.Title), titleLower) {
			score += 5
		}

		// Author match
		if author != "" && len(doc.AuthorName) > 0 {
			for _, docAuthor := range doc.AuthorName {
				if strings.ToLower(docAuthor) == authorLower {
					score += 10
					break
				} else if strings.Contains(strings.ToLower(docAuthor), authorLower) {
					score += 5
					break
				}
			}
		}

		// Prefer books with covers
		if doc.CoverI != 0 {
			score += 1
		}

		if score > bestScore {
			bestScore = score
			bestMatch = doc
		}
	}

	if bestMatch == nil && len(docs) > 0 {
		bestMatch = &docs[0]
	}

	return bestMatch
}

// fetchWorkDescription fetches a work record for its description. The field
// is either a bare string or a {type, value} object.
func (c *OpenLibraryClient) fetchWorkDescription(ctx context.Context, workKey string) (string, error) {
	c.rateLimiter.wait()

	var work struct {
		Description json.RawMessage `json:"description"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s.json", c.baseURL, workKey), &work); err != nil {
		return "", err
	}
	if len(work.Description) == 0 {
		return "", fmt.Errorf("no description")
	}

	var asString string
	if err := json.Unmarshal(work.Description, &asString); err == nil {
		return asString, nil
	}

	var asObject struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(work.Description, &asObject); err == nil && asObject.Value != "" {
		return asObject.Value, nil
	}

	return "", fmt.Errorf("unrecognized description format")
}

func (c *OpenLibraryClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Bibliotheca/1.0 (https://github.com/openshelf/bibliotheca)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
