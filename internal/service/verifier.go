package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gatesweb/emlak-directory/internal/entity"
	"github.com/gatesweb/emlak-directory/internal/metrics"
)

var verifierEmailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// disposableDomains never receive the deliverable label.
var disposableDomains = map[string]struct{}{
	"10minutemail.com":  {},
	"guerrillamail.com": {},
	"mailinator.com":    {},
	"tempmail.org":      {},
	"throwaway.email":   {},
	"example.com":       {},
	"test.com":          {},
}

// trustedDomainSuffixes are webmail providers and Turkish ISP/registry
// suffixes with established reputations; matching domains skip the
// resolution half of the reputation check.
var trustedDomainSuffixes = []string{
	"gmail.com", "hotmail.com", "yahoo.com", "outlook.com",
	"turk.net", "superonline.com", "mynet.com", "ttnet.net.tr",
	"com.tr", "net.tr", "org.tr", "info.tr", "biz.tr",
}

// ErrRecipientRejected signals that the remote mail server refused the
// RCPT command, a definitive undeliverable verdict.
var ErrRecipientRejected = errors.New("recipient rejected by mail server")

// DNSResolver abstracts DNS lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// SMTPProber tests whether a mailbox accepts mail without sending any.
// A nil return means the recipient was accepted; ErrRecipientRejected means
// a definitive refusal; any other error is a transport failure.
type SMTPProber interface {
	Probe(ctx context.Context, mxHost, from, recipient string) error
}

// Verifier classifies email addresses as deliverable ("200") or not ("BAD")
// using four independent checks: syntax, domain resolution, MX presence,
// reputation, and finally an SMTP RCPT probe.
type Verifier struct {
	sendingDomain string
	resolver      DNSResolver
	prober        SMTPProber
	concurrency   int
	limiter       *rate.Limiter
	lookupTimeout time.Duration
}

// VerifierOption configures optional dependencies.
type VerifierOption func(*Verifier)

// WithVerifierResolver overrides the default DNS resolver.
func WithVerifierResolver(resolver DNSResolver) VerifierOption {
	return func(v *Verifier) {
		if resolver != nil {
			v.resolver = resolver
		}
	}
}

// WithVerifierProber overrides the default SMTP prober.
func WithVerifierProber(prober SMTPProber) VerifierOption {
	return func(v *Verifier) {
		if prober != nil {
			v.prober = prober
		}
	}
}

// WithVerifierConcurrency bounds the number of concurrent verifications.
func WithVerifierConcurrency(n int) VerifierOption {
	return func(v *Verifier) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// WithVerifierPacing spaces out verifications so remote mail servers are
// not hammered. Zero disables pacing.
func WithVerifierPacing(interval time.Duration) VerifierOption {
	return func(v *Verifier) {
		if interval > 0 {
			v.limiter = rate.NewLimiter(rate.Every(interval), 1)
		} else {
			v.limiter = nil
		}
	}
}

// NewVerifier builds a verifier identifying itself as sendingDomain during
// SMTP handshakes.
func NewVerifier(sendingDomain string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		sendingDomain: sendingDomain,
		resolver:      systemDNSResolver{},
		concurrency:   3,
		limiter:       rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		lookupTimeout: 5 * time.Second,
	}
	v.prober = &netSMTPProber{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs the full check chain for one address and returns the label.
func (v *Verifier) Verify(ctx context.Context, email string) string {
	start := time.Now()
	defer func() {
		metrics.VerificationDuration.Observe(time.Since(start).Seconds())
	}()

	email = strings.ToLower(strings.TrimSpace(email))
	if !verifierEmailPattern.MatchString(email) {
		return entity.VerificationBad
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	asciiDomain, err := idna.Lookup.ToASCII(domain)
	if err != nil || asciiDomain == "" {
		return entity.VerificationBad
	}

	if !v.domainResolves(ctx, asciiDomain) {
		return entity.VerificationBad
	}

	mxHosts := v.mxHosts(ctx, asciiDomain)
	if len(mxHosts) == 0 {
		return entity.VerificationBad
	}

	if !v.reputableDomain(ctx, asciiDomain) {
		return entity.VerificationBad
	}

	if err := v.prober.Probe(ctx, mxHosts[0], "test@"+v.sendingDomain, email); err != nil {
		if errors.Is(err, ErrRecipientRejected) {
			return entity.VerificationBad
		}
		// Transport failures after every static check passed are treated
		// as deliverable: many Turkish mail hosts drop port 25 probes.
		return entity.VerificationDeliverable
	}

	return entity.VerificationDeliverable
}

// VerifyBatch labels every record concurrently, bounded by the configured
// concurrency, and returns per-label tallies. Records are updated in place.
func (v *Verifier) VerifyBatch(ctx context.Context, companies []entity.Company) (deliverable, bad int, err error) {
	results := make([]string, len(companies))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for i := range companies {
		i := i
		g.Go(func() error {
			if v.limiter != nil {
				if err := v.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			results[i] = v.Verify(ctx, companies[i].Email)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	for i := range companies {
		status := results[i]
		companies[i].EmailVerification = &status
		if status == entity.VerificationDeliverable {
			deliverable++
		} else {
			bad++
		}
		metrics.EmailsVerified.WithLabelValues(status).Inc()
	}

	return deliverable, bad, nil
}

// QuickCheck is the expander's cheap pre-admission test: trusted domains
// pass outright, anything else needs an MX answer.
func (v *Verifier) QuickCheck(ctx context.Context, email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])

	for _, trusted := range trustedDomainSuffixes {
		if domain == trusted {
			return true
		}
	}
	for _, business := range turkishBusinessDomains {
		if domain == business {
			return true
		}
	}

	return len(v.mxHosts(ctx, domain)) > 0
}

func (v *Verifier) domainResolves(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.lookupTimeout)
	defer cancel()
	addrs, err := v.resolver.LookupHost(ctx, domain)
	return err == nil && len(addrs) > 0
}

func (v *Verifier) mxHosts(ctx context.Context, domain string) []string {
	ctx, cancel := context.WithTimeout(ctx, v.lookupTimeout)
	defer cancel()
	records, err := v.resolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		return nil
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
	hosts := make([]string, 0, len(records))
	for _, record := range records {
		if host := strings.TrimSuffix(record.Host, "."); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func (v *Verifier) reputableDomain(ctx context.Context, domain string) bool {
	for _, trusted := range trustedDomainSuffixes {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			return true
		}
	}
	if _, disposable := disposableDomains[domain]; disposable {
		return false
	}
	return v.domainResolves(ctx, domain)
}

// systemDNSResolver delegates to the platform resolver.
type systemDNSResolver struct{}

func (systemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}

func (systemDNSResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, host)
}

// netSMTPProber dials the MX host on port 25 and walks the HELO/MAIL/RCPT
// sequence without ever sending DATA.
type netSMTPProber struct {
	timeout time.Duration
}

func (p *netSMTPProber) Probe(ctx context.Context, mxHost, from, recipient string) error {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(mxHost, "25"))
	if err != nil {
		return fmt.Errorf("dial %s: %w", mxHost, err)
	}

	client, err := smtp.NewClient(conn, mxHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake with %s: %w", mxHost, err)
	}
	defer client.Quit()

	heloDomain := from[strings.LastIndex(from, "@")+1:]
	if err := client.Hello(heloDomain); err != nil {
		return fmt.Errorf("helo: %w", err)
	}
	if err := client.Mail(from); err != nil {
		if isRejection(err) {
			return ErrRecipientRejected
		}
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		if isRejection(err) {
			return ErrRecipientRejected
		}
		return fmt.Errorf("rcpt to: %w", err)
	}

	return nil
}

// isRejection distinguishes a protocol-level refusal (4xx/5xx reply) from a
// transport failure. 250 and 251 are the accepted codes; anything else the
// server said explicitly counts as a refusal.
func isRejection(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code != 250 && protoErr.Code != 251
	}
	return false
}
