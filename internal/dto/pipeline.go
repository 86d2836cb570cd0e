package dto

// GenerateRequest is the payload for the batch generation endpoint.
type GenerateRequest struct {
	Count int `json:"count"`
}

// GenerateSummary reports the outcome of a generation run.
type GenerateSummary struct {
	Requested int `json:"requested"`
	Generated int `json:"generated"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
}

// EnrichRequest is the payload for the email enrichment endpoint.
type EnrichRequest struct {
	Limit int `json:"limit,omitempty"`
}

// EnrichSummary reports how emails were obtained during an enrichment run.
type EnrichSummary struct {
	Processed int `json:"processed"`
	Scraped   int `json:"scraped"`
	Generated int `json:"generated"`
}

// VerifyRequest is the payload for the email verification endpoint.
type VerifyRequest struct {
	Limit int `json:"limit,omitempty"`
}

// VerifySummary tallies verification outcomes for a run.
type VerifySummary struct {
	Processed   int     `json:"processed"`
	Deliverable int     `json:"deliverable"`
	Bad         int     `json:"bad"`
	SuccessRate float64 `json:"success_rate"`
}

// ExpandRequest asks the pipeline to grow the dataset until it holds the
// given number of verified records.
type ExpandRequest struct {
	TargetVerified int `json:"target_verified"`
}

// ExpandSummary reports the outcome of an expansion run.
type ExpandSummary struct {
	TargetVerified   int  `json:"target_verified"`
	VerifiedBefore   int  `json:"verified_before"`
	Added            int  `json:"added"`
	AlreadySatisfied bool `json:"already_satisfied"`
}
