// Package scraper imports job postings from the web as job descriptions.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/khrees2412/careerflow/internal/apperr"
	"github.com/khrees2412/careerflow/internal/logger"
)

const (
	pageLoadTimeout = 30 * time.Second
	settleDelay     = 2 * time.Second
)

// Posting is a job posting read from a page.
type Posting struct {
	URL     string
	Title   string
	Company string
	Content string
}

// Renderer returns the HTML of a page after its scripts have run.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Browser renders pages in headless Chrome.
type Browser struct {
	log logger.Logger
}

func NewBrowser(log logger.Logger) *Browser {
	if log == nil {
		log = logger.Nop()
	}
	return &Browser{log: log}
}

// createBrowserContext starts a headless browser bound to parent.
func (b *Browser) createBrowserContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		// chromedp lags behind the devtools protocol and reports every
		// event it cannot decode
		if strings.Contains(msg, "could not unmarshal event") {
			return
		}
		b.log.Debug(msg)
	}))

	return ctx, func() {
		cancelCtx()
		cancelAlloc()
	}
}

func (b *Browser) Render(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pageLoadTimeout)
	defer cancel()
	ctx, cancelBrowser := b.createBrowserContext(ctx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if apperr.IsTimeout(err) {
			return "", &apperr.NetworkError{Op: "render " + pageURL, Timeout: true, Cause: err}
		}
		return "", fmt.Errorf("failed to render %s: %w", pageURL, err)
	}
	return html, nil
}

// Fetch renders pageURL and extracts the posting.
func Fetch(ctx context.Context, r Renderer, pageURL string) (Posting, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Posting{}, apperr.Invalid("url", "%q is not an http(s) URL", pageURL)
	}

	html, err := r.Render(ctx, u.String())
	if err != nil {
		return Posting{}, err
	}
	p, err := Extract(html, u)
	if err != nil {
		return Posting{}, err
	}
	if p.Content == "" {
		return Posting{}, fmt.Errorf("no job description found at %s", u)
	}
	return p, nil
}

// descriptionSelectors locate the posting body on common job boards, most
// specific first.
var descriptionSelectors = []string{
	".jobs-description-content__text",
	".show-more-less-html__markup",
	"#job-details",
	".description__text",
	"[data-testid='job-description']",
	".job-description",
	"#job-description",
	".posting-content",
	"#content .job__description",
	"main",
	"article",
}

// Extract reads a posting out of rendered HTML.
func Extract(html string, pageURL *url.URL) (Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Posting{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, nav, footer, header, .cookie-banner").Remove()

	p := Posting{URL: pageURL.String()}
	p.Title = firstNonEmpty(
		meta(doc, "og:title"),
		doc.Find("h1").First().Text(),
		doc.Find("title").First().Text(),
	)
	p.Company = firstNonEmpty(
		meta(doc, "og:site_name"),
		companyFromHost(pageURL.Hostname()),
	)

	content := doc.Find("body")
	for _, sel := range descriptionSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			content = s.First()
			break
		}
	}
	p.Content = cleanText(content.Text())
	return p, nil
}

func meta(doc *goquery.Document, property string) string {
	v, _ := doc.Find(fmt.Sprintf("meta[property=%q]", property)).Attr("content")
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.Join(strings.Fields(v), " "); v != "" {
			return v
		}
	}
	return ""
}

var jobBoardHosts = []string{"linkedin", "greenhouse", "lever", "indeed", "workable", "topcv", "itviec"}

// companyFromHost guesses the employer from a careers site host name.
// Shared job boards say nothing about the employer.
func companyFromHost(host string) string {
	labels := strings.Split(strings.TrimPrefix(host, "www."), ".")
	if len(labels) < 2 {
		return ""
	}
	name := labels[len(labels)-2]
	if len(labels) > 2 && (name == "co" || name == "com") {
		name = labels[len(labels)-3]
	}
	for _, board := range jobBoardHosts {
		if strings.Contains(host, board) {
			return ""
		}
	}
	if name == "careers" || name == "jobs" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}

func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
