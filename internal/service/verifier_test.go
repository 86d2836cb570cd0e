package service

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/gatesweb/emlak-directory/internal/entity"
)

// stubResolver answers lookups from fixed maps.
type stubResolver struct {
	hosts map[string][]string
	mx    map[string][]*net.MX
}

func (s *stubResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	records, ok := s.mx[domain]
	if !ok {
		return nil, errors.New("no MX records")
	}
	return records, nil
}

func (s *stubResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	addrs, ok := s.hosts[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return addrs, nil
}

// stubProber returns a fixed outcome and records the probes it saw.
type stubProber struct {
	err    error
	probes []string
}

func (s *stubProber) Probe(_ context.Context, mxHost, from, recipient string) error {
	s.probes = append(s.probes, mxHost+"|"+from+"|"+recipient)
	return s.err
}

func newTestVerifier(resolver DNSResolver, prober SMTPProber) *Verifier {
	return NewVerifier("example.org",
		WithVerifierResolver(resolver),
		WithVerifierProber(prober),
		WithVerifierPacing(0),
	)
}

func resolverFor(domain, mxHost string) *stubResolver {
	return &stubResolver{
		hosts: map[string][]string{domain: {"192.0.2.1"}},
		mx:    map[string][]*net.MX{domain: {{Host: mxHost + ".", Pref: 10}}},
	}
}

func TestVerifyDeliverable(t *testing.T) {
	prober := &stubProber{}
	v := newTestVerifier(resolverFor("guvenemlak.com.tr", "mail.guvenemlak.com.tr"), prober)

	if got := v.Verify(context.Background(), "info@guvenemlak.com.tr"); got != entity.VerificationDeliverable {
		t.Fatalf("expected %q, got %q", entity.VerificationDeliverable, got)
	}
	if len(prober.probes) != 1 {
		t.Fatalf("expected one probe, got %d", len(prober.probes))
	}
	if prober.probes[0] != "mail.guvenemlak.com.tr|test@example.org|info@guvenemlak.com.tr" {
		t.Fatalf("unexpected probe %q", prober.probes[0])
	}
}

func TestVerifyBadSyntax(t *testing.T) {
	v := newTestVerifier(&stubResolver{}, &stubProber{})

	for _, email := range []string{"", "no-at-sign", "a@b", "spaces in@mail.com"} {
		if got := v.Verify(context.Background(), email); got != entity.VerificationBad {
			t.Errorf("Verify(%q) = %q, want %q", email, got, entity.VerificationBad)
		}
	}
}

func TestVerifyUnresolvableDomain(t *testing.T) {
	v := newTestVerifier(&stubResolver{}, &stubProber{})

	if got := v.Verify(context.Background(), "info@nonexistent-domain.com"); got != entity.VerificationBad {
		t.Fatalf("expected %q for unresolvable domain, got %q", entity.VerificationBad, got)
	}
}

func TestVerifyNoMXRecords(t *testing.T) {
	resolver := &stubResolver{hosts: map[string][]string{"parked.com": {"192.0.2.1"}}}
	v := newTestVerifier(resolver, &stubProber{})

	if got := v.Verify(context.Background(), "info@parked.com"); got != entity.VerificationBad {
		t.Fatalf("expected %q without MX records, got %q", entity.VerificationBad, got)
	}
}

func TestVerifyDisposableDomain(t *testing.T) {
	v := newTestVerifier(resolverFor("mailinator.com", "mx.mailinator.com"), &stubProber{})

	if got := v.Verify(context.Background(), "throwaway@mailinator.com"); got != entity.VerificationBad {
		t.Fatalf("expected %q for disposable domain, got %q", entity.VerificationBad, got)
	}
}

func TestVerifyRecipientRejected(t *testing.T) {
	prober := &stubProber{err: ErrRecipientRejected}
	v := newTestVerifier(resolverFor("guvenemlak.com.tr", "mail.guvenemlak.com.tr"), prober)

	if got := v.Verify(context.Background(), "gone@guvenemlak.com.tr"); got != entity.VerificationBad {
		t.Fatalf("expected %q after RCPT refusal, got %q", entity.VerificationBad, got)
	}
}

func TestVerifyTransportFailureIsDeliverable(t *testing.T) {
	prober := &stubProber{err: errors.New("dial tcp: connection timed out")}
	v := newTestVerifier(resolverFor("guvenemlak.com.tr", "mail.guvenemlak.com.tr"), prober)

	if got := v.Verify(context.Background(), "info@guvenemlak.com.tr"); got != entity.VerificationDeliverable {
		t.Fatalf("expected %q when only the probe transport fails, got %q", entity.VerificationDeliverable, got)
	}
}

func TestVerifyPrefersLowestMXPreference(t *testing.T) {
	resolver := &stubResolver{
		hosts: map[string][]string{"firm.com.tr": {"192.0.2.1"}},
		mx: map[string][]*net.MX{"firm.com.tr": {
			{Host: "backup.firm.com.tr.", Pref: 20},
			{Host: "primary.firm.com.tr.", Pref: 5},
		}},
	}
	prober := &stubProber{}
	v := newTestVerifier(resolver, prober)

	v.Verify(context.Background(), "info@firm.com.tr")
	if len(prober.probes) != 1 || prober.probes[0][:len("primary.firm.com.tr")] != "primary.firm.com.tr" {
		t.Fatalf("expected probe against primary MX, got %v", prober.probes)
	}
}

func TestVerifyBatch(t *testing.T) {
	resolver := resolverFor("guvenemlak.com.tr", "mail.guvenemlak.com.tr")
	v := newTestVerifier(resolver, &stubProber{})

	companies := []entity.Company{
		{Name: "Güven Emlak", Email: "info@guvenemlak.com.tr"},
		{Name: "Boş Firma", Email: "broken"},
	}

	deliverable, bad, err := v.VerifyBatch(context.Background(), companies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deliverable != 1 || bad != 1 {
		t.Fatalf("expected 1 deliverable and 1 bad, got %d/%d", deliverable, bad)
	}
	for i := range companies {
		if companies[i].EmailVerification == nil {
			t.Fatalf("record %d missing verification label", i)
		}
	}
	if *companies[0].EmailVerification != entity.VerificationDeliverable {
		t.Fatalf("expected first record deliverable, got %q", *companies[0].EmailVerification)
	}
	if *companies[1].EmailVerification != entity.VerificationBad {
		t.Fatalf("expected second record bad, got %q", *companies[1].EmailVerification)
	}
}

func TestQuickCheckTrustedDomains(t *testing.T) {
	v := newTestVerifier(&stubResolver{}, &stubProber{})

	for _, email := range []string{"a.b@gmail.com", "x@superonline.com", "y@mynet.com"} {
		if !v.QuickCheck(context.Background(), email) {
			t.Errorf("expected quick check to pass for %q", email)
		}
	}
}

func TestQuickCheckFallsBackToMX(t *testing.T) {
	v := newTestVerifier(resolverFor("firm.example", "mx.firm.example"), &stubProber{})

	if !v.QuickCheck(context.Background(), "info@firm.example") {
		t.Fatal("expected quick check to pass with MX records present")
	}
	if v.QuickCheck(context.Background(), "info@unknown.example") {
		t.Fatal("expected quick check to fail without MX records")
	}
	if v.QuickCheck(context.Background(), "malformed") {
		t.Fatal("expected quick check to fail for malformed address")
	}
}
