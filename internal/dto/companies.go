package dto

// ListFilter contains query parameters for company listing endpoints.
type ListFilter struct {
	Q            string
	District     string
	Source       string
	EmailSource  string
	Verification string // "200", "BAD" or "none" for unverified rows
	Page         int
	PerPage      int
}

// DatasetStats summarises the stored dataset for reporting endpoints.
type DatasetStats struct {
	Total           int            `json:"total"`
	Verified        int            `json:"verified"`
	Bad             int            `json:"bad"`
	Unverified      int            `json:"unverified"`
	SuccessRate     float64        `json:"success_rate"`
	WithWebsite     int            `json:"with_website"`
	WithFounder     int            `json:"with_founder"`
	ByDistrict      map[string]int `json:"by_district"`
	BySource        map[string]int `json:"by_source"`
	ByEmailSource   map[string]int `json:"by_email_source"`
	AvgContactScore float64        `json:"avg_contact_score"`
}
