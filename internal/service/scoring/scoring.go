// Package scoring grades the contact completeness of directory records so
// reports can rank dataset quality beyond raw verification tallies.
package scoring

import (
	"net/url"
	"strings"
)

const (
	categoryContact  = "contact_completeness"
	categoryWebsite  = "web_presence"
	categoryIdentity = "identity"
	categoryDelivery = "deliverability"
)

var turkishTLDs = []string{".com.tr", ".net.tr", ".org.tr", ".info.tr", ".biz.tr"}

// RecordFeatures captures the record signals used for scoring.
type RecordFeatures struct {
	Email    string
	Phone    string
	Website  string
	Founder  bool
	Verified bool
}

// ScoreResult reports the aggregate score and the per-category breakdown.
type ScoreResult struct {
	Total     int
	Breakdown map[string]int
}

// ComputeScore evaluates the provided features and returns the score
// breakdown. The maximum attainable total is 100.
func ComputeScore(input RecordFeatures) ScoreResult {
	breakdown := map[string]int{
		categoryContact:  scoreContact(input),
		categoryWebsite:  scoreWebsite(input),
		categoryIdentity: scoreIdentity(input),
		categoryDelivery: scoreDeliverability(input),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
	}
}

func scoreContact(input RecordFeatures) int {
	score := 0
	if strings.Contains(input.Email, "@") {
		score += 15
	}
	if strings.TrimSpace(input.Phone) != "" {
		score += 15
	}
	return score
}

func scoreWebsite(input RecordFeatures) int {
	site := strings.TrimSpace(input.Website)
	if site == "" {
		return 0
	}

	score := 10
	u, err := url.Parse(site)
	if err != nil || u.Hostname() == "" {
		return score
	}
	if u.Scheme == "https" {
		score += 5
	}

	host := strings.ToLower(u.Hostname())
	for _, tld := range turkishTLDs {
		if strings.HasSuffix(host, tld) {
			score += 5
			break
		}
	}

	// An email on the company's own domain signals a maintained mailbox.
	if at := strings.LastIndex(input.Email, "@"); at >= 0 {
		emailDomain := strings.ToLower(input.Email[at+1:])
		if emailDomain == strings.TrimPrefix(host, "www.") {
			score += 10
		}
	}

	if score > 30 {
		return 30
	}
	return score
}

func scoreIdentity(input RecordFeatures) int {
	if input.Founder {
		return 10
	}
	return 0
}

func scoreDeliverability(input RecordFeatures) int {
	if input.Verified {
		return 30
	}
	return 0
}
