package service

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/idna"

	"github.com/gatesweb/emlak-directory/internal/entity"
	"github.com/gatesweb/emlak-directory/internal/metrics"
)

// Email origin tags recorded in the email_source column.
const (
	EmailSourceScraped           = "Scraped"
	EmailSourceGenerated         = "Generated"
	EmailSourceGeneratedVerified = "Generated Verified"
)

const (
	scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxPageBytes    = 1 << 20
)

var (
	scrapedEmailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Artifacts that the page-text regex tends to pick up alongside real
	// addresses: image names, office documents and placeholder domains.
	scrapedEmailArtifacts = []string{"jpg", "png", "gif", "pdf", "doc", "example", "test", "dummy"}

	noReplyMarkers = []string{"noreply", "no-reply", "donotreply"}

	contactLinkMarkers = []string{"contact", "iletisim", "bilgi", "about"}
)

var businessEmailPrefixes = []string{
	"info", "iletisim", "bilgi", "contact", "admin", "sales", "satis",
	"destek", "support", "office", "ofis", "genel", "general",
	"mudur", "manager", "direktor", "director", "emlak", "gayrimenkul",
	"servis", "service", "musteri", "customer", "danisan", "consultant",
}

// webmailDomains have established deliverability and are favoured when
// synthesising personal addresses.
var webmailDomains = []string{
	"gmail.com", "hotmail.com", "outlook.com", "yahoo.com",
	"yandex.com", "icloud.com", "live.com", "msn.com",
	"protonmail.com", "tutanota.com",
}

// turkishBusinessDomains are widely used ISP mailboxes for small Turkish firms.
var turkishBusinessDomains = []string{
	"turkcell.com.tr", "vodafone.com.tr", "ttnet.net.tr",
	"superonline.com", "mynet.com", "turk.net", "ttmail.com",
}

// HTTPClient abstracts HTTP requests so scraping can be stubbed in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// lockedSource serialises draws from a rand.Source. A single Enricher is
// shared by the pipeline's concurrent enrichment workers, so its random
// source must be safe for parallel use.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// Enricher attaches an email address to each company record: scraped from
// the company website when one resolves, otherwise synthesised from the
// directory's naming templates.
type Enricher struct {
	httpClient HTTPClient
	rng        *rand.Rand
}

// EnricherOption configures optional dependencies.
type EnricherOption func(*Enricher)

// WithEnricherHTTPClient overrides the HTTP client used for scraping.
func WithEnricherHTTPClient(client HTTPClient) EnricherOption {
	return func(e *Enricher) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithEnricherSeed makes synthesis deterministic, for tests.
func WithEnricherSeed(seed int64) EnricherOption {
	return func(e *Enricher) {
		e.rng = rand.New(&lockedSource{src: rand.NewSource(seed)})
	}
}

// NewEnricher builds an enricher with a default scraping client.
func NewEnricher(timeout time.Duration, opts ...EnricherOption) *Enricher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	e := &Enricher{
		httpClient: &http.Client{Timeout: timeout},
		rng:        rand.New(&lockedSource{src: rand.NewSource(time.Now().UnixNano())}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich fills the Email and EmailSource fields of the record. Scraping
// failures are not errors: the record always ends up with an address.
func (e *Enricher) Enrich(ctx context.Context, c *entity.Company) {
	if c.Website != nil {
		if scraped := e.ScrapeEmails(ctx, *c.Website); len(scraped) > 0 {
			c.Email = scraped[0]
			c.EmailSource = EmailSourceScraped
			metrics.EmailsEnriched.WithLabelValues("scraped").Inc()
			return
		}
	}

	c.Email = e.SynthesizeEmail(c.Name, c.Website)
	c.EmailSource = EmailSourceGenerated
	metrics.EmailsEnriched.WithLabelValues("generated").Inc()
}

// ScrapeEmails fetches the site and returns professional-looking addresses
// found in the page text, following the first contact-like link one level
// deep. The result preserves discovery order and contains no duplicates.
func (e *Enricher) ScrapeEmails(ctx context.Context, site string) []string {
	base, err := url.Parse(strings.TrimSpace(site))
	if err != nil || base.Host == "" || !strings.HasPrefix(base.Scheme, "http") {
		return nil
	}

	text, links, err := e.fetchPage(ctx, base.String())
	if err != nil {
		return nil
	}

	emails := extractEmails(text)

	for _, href := range links {
		lower := strings.ToLower(href)
		if !containsAny(lower, contactLinkMarkers) {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		contactText, _, err := e.fetchPage(ctx, base.ResolveReference(ref).String())
		if err == nil {
			emails = append(emails, extractEmails(contactText)...)
		}
		break // only the first contact link
	}

	return dedupStrings(emails)
}

// SynthesizeEmail builds a professional address from the company's own
// domain (when it has a website) or a slug-derived Turkish domain.
func (e *Enricher) SynthesizeEmail(companyName string, website *string) string {
	domain := ""
	if website != nil {
		if u, err := url.Parse(*website); err == nil {
			domain = strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
		}
	}
	if domain == "" {
		domain = companySlug(companyName) + pick(e.rng, domainExtensions)
	}
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil && ascii != "" {
		domain = ascii
	}

	prefix := pick(e.rng, businessEmailPrefixes)
	// 30% of addresses use a prefix variation.
	if e.rng.Float64() < 0.3 {
		variations := []string{
			prefix + "1",
			prefix + ".tr",
			prefix + ".ist",
			"istanbul." + prefix,
			"ist." + prefix,
		}
		prefix = pick(e.rng, variations)
	}

	return prefix + "@" + domain
}

// WebmailEmail synthesises an address on an established webmail or Turkish
// ISP domain, preferring personal patterns built from the founder's name.
// The expansion pipeline uses these because their domains always resolve.
func (e *Enricher) WebmailEmail(founder *string, companyName string) string {
	domain := e.verifiedDomain()

	var patterns []string
	if founder != nil {
		parts := strings.Fields(strings.ToLower(*founder))
		if len(parts) >= 2 {
			first := cleanForEmail(parts[0])
			last := cleanForEmail(parts[1])
			if first != "" && last != "" {
				patterns = append(patterns,
					first+"."+last+"@"+domain,
					first+last+"@"+domain,
					first[:1]+last+"@"+domain,
					first+"_"+last+"@"+domain,
					first+last[:1]+"@"+domain,
				)
			}
		}
	}

	if slug := companySlug(companyName); slug != "" {
		if len(slug) > 10 {
			slug = slug[:10]
		}
		patterns = append(patterns,
			"info@"+slug+".com",
			"contact@"+slug+".com",
			"sales@"+slug+".com",
			slug+"@"+domain,
		)
	}

	for _, p := range []string{"info", "contact", "sales", "admin", "office", "manager"} {
		patterns = append(patterns, p+"@"+domain)
	}

	return pick(e.rng, patterns)
}

// GuaranteedWebmailEmail returns a gmail address built from the founder's
// given name, the expander's last-resort fallback.
func (e *Enricher) GuaranteedWebmailEmail(founder *string) string {
	name := "info"
	if founder != nil {
		if parts := strings.Fields(*founder); len(parts) > 0 {
			if cleaned := cleanForEmail(parts[0]); cleaned != "" {
				name = cleaned
			}
		}
	}
	return fmt.Sprintf("%s.%d@gmail.com", name, 1+e.rng.Intn(999))
}

func (e *Enricher) verifiedDomain() string {
	all := make([]string, 0, len(webmailDomains)+len(turkishBusinessDomains))
	all = append(all, webmailDomains...)
	all = append(all, turkishBusinessDomains...)
	return pick(e.rng, all)
}

// fetchPage downloads the page and returns its visible text plus all anchor
// hrefs, using the x/net/html tokenizer.
func (e *Enricher) fetchPage(ctx context.Context, target string) (string, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept-Language", "tr-TR,tr;q=0.8,en-US;q=0.5,en;q=0.3")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var (
		text  strings.Builder
		links []string
	)
	tokenizer := html.NewTokenizer(io.LimitReader(resp.Body, maxPageBytes))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return text.String(), links, nil
		case html.TextToken:
			text.Write(tokenizer.Text())
			text.WriteByte(' ')
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := tokenizer.TagAttr()
				if string(key) == "href" {
					links = append(links, string(val))
				}
				if !more {
					break
				}
			}
		}
	}
}

func extractEmails(text string) []string {
	matches := scrapedEmailPattern.FindAllString(strings.ToLower(text), -1)
	valid := matches[:0]
	for _, email := range matches {
		if len(email) <= 5 {
			continue
		}
		if containsAny(email, scrapedEmailArtifacts) || containsAny(email, noReplyMarkers) {
			continue
		}
		valid = append(valid, email)
	}
	return valid
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func dedupStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
