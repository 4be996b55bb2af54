package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
)

// URL patterns in priority order. The first one whose captures parse wins.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`@([-\d.]+),([-\d.]+)`),
	regexp.MustCompile(`!3d([-\d.]+)!4d([-\d.]+)`),
	regexp.MustCompile(`query=([-\d.]+),([-\d.]+)`),
}

var (
	latLabelPattern = regexp.MustCompile(`(?i)\b(?:latitude|lat)[^a-z0-9+\-.]{0,8}([+-]?\d+(?:\.\d+)?)\s*°?\s*([ns])?\b`)
	lngLabelPattern = regexp.MustCompile(`(?i)\b(?:longitude|long|lng|lon)[^a-z0-9+\-.]{0,8}([+-]?\d+(?:\.\d+)?)\s*°?\s*([ew])?\b`)
)

// CoordinateExtractor pulls a coordinate out of map links and recognized text.
type CoordinateExtractor struct {
	httpClient *http.Client
	timeout    time.Duration
}

func NewCoordinateExtractor(timeout time.Duration) *CoordinateExtractor {
	return &CoordinateExtractor{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// FindMapLink returns the first whitespace-separated token of text that points
// at a known map domain. A missing scheme is completed with https.
func FindMapLink(text string) (string, bool) {
	for _, tok := range strings.Fields(text) {
		lower := strings.ToLower(tok)
		for _, d := range config.MapLinkDomains {
			if !strings.Contains(lower, d) {
				continue
			}
			if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
				tok = "https://" + tok
			}
			return tok, true
		}
	}
	return "", false
}

// FromURL resolves rawURL, following redirects, and reads the coordinate from the
// final URL. When the URL carries none and the page is HTML, the canonical and
// Open Graph links of the page are tried with the same patterns.
func (e *CoordinateExtractor) FromURL(ctx context.Context, rawURL string) (domain.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: build request: %v", domain.ErrUnresolvableLocation, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; firelinx-bot)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: resolve link: %v", domain.ErrResolutionFailed, err)
	}
	defer resp.Body.Close()

	if c, ok := coordinateFromURL(resp.Request.URL.String()); ok {
		return c, nil
	}

	if isHTML(resp.Header.Get("Content-Type")) {
		c, err := coordinateFromPage(io.LimitReader(resp.Body, config.MaxResolvedPageBytes))
		if err == nil {
			return c, nil
		}
		if ctx.Err() != nil {
			return domain.Coordinate{}, fmt.Errorf("%w: read page: %v", domain.ErrResolutionFailed, ctx.Err())
		}
	}

	return domain.Coordinate{}, fmt.Errorf("%w: no coordinate in %s", domain.ErrUnresolvableLocation, resp.Request.URL.Redacted())
}

// FromText reads labelled latitude and longitude values from free text, such as
// the transcription of a GPS camera overlay.
func (e *CoordinateExtractor) FromText(text string) (domain.Coordinate, error) {
	return coordinateFromText(text)
}

func coordinateFromURL(u string) (domain.Coordinate, bool) {
	variants := []string{u}
	if decoded, err := url.QueryUnescape(u); err == nil && decoded != u {
		variants = append(variants, decoded)
	}

	for _, p := range urlPatterns {
		for _, v := range variants {
			for _, m := range p.FindAllStringSubmatch(v, -1) {
				if c, err := domain.ParseCoordinate(m[1], m[2]); err == nil {
					return c, true
				}
			}
		}
	}
	return domain.Coordinate{}, false
}

func coordinateFromPage(r io.Reader) (domain.Coordinate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("parse page: %w", err)
	}

	var candidates []string
	collect := func(selector, attr string) {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if v, ok := sel.Attr(attr); ok && v != "" {
				candidates = append(candidates, v)
			}
		})
	}
	collect(`link[rel="canonical"]`, "href")
	collect(`meta[property="og:url"]`, "content")
	collect(`meta[property="og:image"]`, "content")
	collect(`meta[itemprop="image"]`, "content")

	for _, c := range candidates {
		if coord, ok := coordinateFromURL(c); ok {
			return coord, nil
		}
	}
	return domain.Coordinate{}, errors.New("no coordinate in page metadata")
}

func coordinateFromText(text string) (domain.Coordinate, error) {
	lat, ok := labelledValue(latLabelPattern, text, "s")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("%w: no latitude label", domain.ErrUnresolvableLocation)
	}
	lng, ok := labelledValue(lngLabelPattern, text, "w")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("%w: no longitude label", domain.ErrUnresolvableLocation)
	}
	c, err := domain.NewCoordinate(lat, lng)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrUnresolvableLocation, err)
	}
	return c, nil
}

func labelledValue(p *regexp.Regexp, text, negative string) (float64, bool) {
	for _, m := range p.FindAllStringSubmatch(text, -1) {
		v, err := domain.ParseDecimal(m[1])
		if err != nil {
			continue
		}
		if strings.EqualFold(m[2], negative) {
			v = -math.Abs(v)
		}
		return v, true
	}
	return 0, false
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "text/html" || mt == "application/xhtml+xml")
}
