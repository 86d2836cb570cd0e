package service

import (
	"context"
	"testing"

	"github.com/gatesweb/emlak-directory/internal/district"
	"github.com/gatesweb/emlak-directory/internal/entity"
)

func newTestExpander() *Expander {
	generator := NewGenerator(WithGeneratorSeed(7))
	enricher := newTestEnricher(&stubHTTPClient{failAll: true})
	verifier := newTestVerifier(&stubResolver{}, &stubProber{})
	return NewExpander(generator, enricher, verifier)
}

func TestExpandProducesVerifiedRecords(t *testing.T) {
	e := newTestExpander()

	companies := e.Expand(context.Background(), 41)
	if len(companies) != 41 {
		t.Fatalf("expected 41 records, got %d", len(companies))
	}

	seen := make(map[string]struct{}, len(companies))
	for _, c := range companies {
		if c.EmailVerification == nil || *c.EmailVerification != entity.VerificationDeliverable {
			t.Fatalf("record %q not pre-labelled deliverable", c.Name)
		}
		if c.Source != SourceEnhanced {
			t.Fatalf("expected source %q, got %q", SourceEnhanced, c.Source)
		}
		if c.EmailSource != EmailSourceGeneratedVerified {
			t.Fatalf("expected email source %q, got %q", EmailSourceGeneratedVerified, c.EmailSource)
		}
		if c.Email == "" {
			t.Fatalf("record %q missing email", c.Name)
		}
		key := dedupKey(c.Name, c.Phone)
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate (name, phone) pair %q", key)
		}
		seen[key] = struct{}{}
	}
}

func TestExpandDistributesAcrossDistricts(t *testing.T) {
	e := newTestExpander()

	needed := district.Count() + 2
	companies := e.Expand(context.Background(), needed)

	byDistrict := make(map[string]int)
	for _, c := range companies {
		byDistrict[c.District]++
	}

	if len(byDistrict) != district.Count() {
		t.Fatalf("expected all %d districts covered, got %d", district.Count(), len(byDistrict))
	}
	for d, n := range byDistrict {
		if n > 2 {
			t.Errorf("district %q received %d records, expected at most 2", d, n)
		}
	}
}

func TestExpandZeroTarget(t *testing.T) {
	e := newTestExpander()
	if companies := e.Expand(context.Background(), 0); companies != nil {
		t.Fatalf("expected nil for zero target, got %d records", len(companies))
	}
}
