package service

import "strings"

var turkishASCII = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"â", "a", "î", "i", "û", "u",
	"Ç", "C", "Ğ", "G", "İ", "I", "Ö", "O", "Ş", "S", "Ü", "U",
)

// legalAndBusinessTerms are stripped from company names before slugging so
// domains read like "altinyapi" rather than "altinyapiltdsti".
var legalAndBusinessTerms = []string{
	"ltd. şti.", "a.ş.", "ltd.", "san. tic.", "inş.",
	"gayrimenkul", "emlak", "real estate", "danışmanlık", "consulting",
	"yatırım", "investment", "inşaat", "construction",
}

// cleanForEmail transliterates Turkish characters and keeps only ASCII
// alphanumerics, lowercased. Used for email local parts.
func cleanForEmail(text string) string {
	text = turkishASCII.Replace(text)
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// companySlug derives a domain-safe slug from a company name: lowercase,
// transliterate, drop legal and business terms, keep alphanumerics, clamp to
// 4..15 characters padding short results with "emlak".
func companySlug(name string) string {
	slug := strings.ToLower(name)
	for _, term := range legalAndBusinessTerms {
		slug = strings.ReplaceAll(slug, term, "")
	}
	slug = cleanForEmail(slug)
	if len(slug) > 15 {
		slug = slug[:15]
	}
	if len(slug) < 4 {
		slug += "emlak"
	}
	return slug
}
