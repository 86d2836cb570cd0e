package service

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/gatesweb/emlak-directory/internal/district"
	"github.com/gatesweb/emlak-directory/internal/entity"
)

const (
	// SourceGenerated tags records produced by a plain generation run.
	SourceGenerated = "Generated Database"
	// SourceEnhanced tags records produced by the expansion pipeline.
	SourceEnhanced = "Enhanced Database"

	phoneRegion = "TR"
)

var companyPrefixes = []string{
	// Geographic
	"İstanbul", "Boğaziçi", "Marmara", "Anadolu", "Karadeniz", "Akdeniz", "Ege",
	"Beyoğlu", "Taksim", "Galata", "Bosphorus", "Golden Horn", "Asia", "Europe",
	// Quality indicators
	"Altın", "Prestij", "Elite", "VIP", "Royal", "Crown", "Diamond",
	"Platinum", "Gold", "Luxury", "Premium", "Select", "Excellence", "Prime",
	// Modern
	"Modern", "Yeni", "Çağdaş", "Future", "Next", "Smart", "Digital", "Innovation",
	// Trust
	"Güven", "Sağlam", "Emin", "Doğru", "Trust", "Safe", "Reliable", "Solid",
	// Traditional
	"Bizim", "Halk", "Millet", "Aile", "Ev", "Yuva",
}

var businessSuffixes = []string{
	"Emlak", "Gayrimenkul", "Real Estate", "İnşaat", "Yapı", "Konut",
	"Danışmanlık", "Consulting", "Yatırım", "Investment", "Geliştirme",
	"Development", "Pazarlama", "Satış", "Kiralama",
}

var legalStructures = []string{
	"Ltd. Şti.", "A.Ş.", "Ltd.", "San. Tic. A.Ş.", "İnş. San. Tic. Ltd. Şti.",
	"Gayrimenkul A.Ş.", "Yatırım A.Ş.", "",
}

var mobilePrefixes = []string{
	"530", "531", "532", "533", "534", "535", "536", "537", "538", "539",
	"540", "541", "542", "543", "544", "545", "546", "547", "548", "549",
}

var istanbulAreaCodes = []string{"212", "216"}

var domainExtensions = []string{".com.tr", ".com", ".net.tr", ".org.tr", ".info.tr"}

var maleFirstNames = []string{
	"Ahmet", "Mehmet", "Mustafa", "Hasan", "Hüseyin", "Ali", "İbrahim", "İsmail",
	"Murat", "Ömer", "Yusuf", "Kemal", "Abdullah", "Osman", "Fatih", "Erkan",
	"Serkan", "Burak", "Emre", "Can", "Cem", "Deniz", "Efe", "Kaan", "Onur",
}

var femaleFirstNames = []string{
	"Fatma", "Ayşe", "Hatice", "Emine", "Zeynep", "Merve", "Esra", "Elif",
	"Selin", "Burcu", "Gül", "Sevil", "Sibel", "Pınar", "Dilek", "Serap",
	"Nilgün", "Tülay", "Serpil", "Filiz", "Nevin", "Gülay", "Hacer",
}

var surnames = []string{
	"Yılmaz", "Kaya", "Demir", "Şahin", "Çelik", "Öztürk", "Aydın", "Özkan",
	"Arslan", "Doğan", "Kılıç", "Aslan", "Çetin", "Kara", "Koç", "Kurt",
	"Özdemir", "Erdoğan", "Güler", "Türk", "Işık", "Bulut", "Aksoy", "Polat",
	"Ateş", "Güven", "Çakır", "Aktaş", "Yıldız", "Bayrak", "Tuncer", "Korkmaz",
}

// Generator produces fictitious Istanbul real estate company records
// following the directory's naming, phone and website conventions.
type Generator struct {
	rng *rand.Rand
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorSeed makes generation deterministic, for tests.
func WithGeneratorSeed(seed int64) GeneratorOption {
	return func(g *Generator) {
		g.rng = rand.New(&lockedSource{src: rand.NewSource(seed)})
	}
}

// NewGenerator builds a generator seeded from the clock.
func NewGenerator(opts ...GeneratorOption) *Generator {
	// Generators also serve overlapping HTTP requests, so the source is locked.
	g := &Generator{rng: rand.New(&lockedSource{src: rand.NewSource(time.Now().UnixNano())})}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Batch generates exactly count unique records spread over all districts.
// Major districts receive a couple of extra records before the remainder is
// distributed. Uniqueness is enforced on the (name, phone) pair.
func (g *Generator) Batch(count int) []entity.Company {
	if count <= 0 {
		return nil
	}

	perDistrict := count / district.Count()
	extra := count % district.Count()

	// Major districts receive a bonus on top of the even split; the excess
	// is trimmed back from the fullest districts so the total stays exact
	// and no district at the tail of the list is starved.
	targets := make([]int, district.Count())
	total := 0
	for i, d := range district.All {
		target := perDistrict
		if _, major := district.Major[d]; major {
			target += 2
		}
		if i < extra {
			target++
		}
		targets[i] = target
		total += target
	}
	for total > count {
		maxIdx := 0
		for i, target := range targets {
			if target > targets[maxIdx] {
				maxIdx = i
			}
		}
		targets[maxIdx]--
		total--
	}

	companies := make([]entity.Company, 0, count)
	seen := make(map[string]struct{}, count)

	for i, d := range district.All {
		generated := 0
		attempts := 0
		maxAttempts := targets[i]*3 + 3
		for generated < targets[i] && attempts < maxAttempts {
			attempts++
			c := g.Company(d)
			key := dedupKey(c.Name, c.Phone)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			companies = append(companies, c)
			generated++
		}
	}

	// Collision retries can leave a shortfall; top up from random districts.
	for len(companies) < count {
		d := district.All[g.rng.Intn(district.Count())]
		c := g.Company(d)
		key := dedupKey(c.Name, c.Phone)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		companies = append(companies, c)
	}

	return companies
}

// Company generates a single record for the given district. The email field
// is left empty; enrichment attaches it.
func (g *Generator) Company(districtName string) entity.Company {
	name := g.companyName()
	return entity.Company{
		Name:     name,
		Phone:    g.Phone(),
		Website:  g.website(name),
		Founder:  g.founder(),
		District: districtName,
		Source:   SourceGenerated,
	}
}

func (g *Generator) companyName() string {
	prefix := pick(g.rng, companyPrefixes)
	// 20% of names carry a second prefix.
	if g.rng.Float64() < 0.2 {
		second := pick(g.rng, companyPrefixes)
		if second != prefix {
			prefix = prefix + " " + second
		}
	}

	name := prefix + " " + pick(g.rng, businessSuffixes)
	if legal := pick(g.rng, legalStructures); legal != "" {
		name += " " + legal
	}
	return name
}

// Phone generates a valid Turkish number, 70% mobile and 30% Istanbul
// landline, in the international display format (+90 5xx xxx xx xx).
func (g *Generator) Phone() string {
	for {
		var raw string
		if g.rng.Float64() < 0.7 {
			raw = fmt.Sprintf("+90 %s %d %d %d",
				pick(g.rng, mobilePrefixes),
				100+g.rng.Intn(900), 10+g.rng.Intn(90), 10+g.rng.Intn(90))
		} else {
			raw = fmt.Sprintf("+90 %s %d %d %d",
				pick(g.rng, istanbulAreaCodes),
				300+g.rng.Intn(700), 10+g.rng.Intn(90), 10+g.rng.Intn(90))
		}

		number, err := phonenumbers.Parse(raw, phoneRegion)
		if err != nil || !phonenumbers.IsValidNumber(number) {
			continue
		}
		return phonenumbers.Format(number, phonenumbers.INTERNATIONAL)
	}
}

// website returns a URL for 75% of records, derived from the company slug.
func (g *Generator) website(name string) *string {
	if g.rng.Float64() >= 0.75 {
		return nil
	}
	site := "https://www." + companySlug(name) + pick(g.rng, domainExtensions)
	return &site
}

// founder returns a Turkish full name for 80% of records, 70% male.
func (g *Generator) founder() *string {
	if g.rng.Float64() >= 0.8 {
		return nil
	}
	var first string
	if g.rng.Float64() < 0.7 {
		first = pick(g.rng, maleFirstNames)
	} else {
		first = pick(g.rng, femaleFirstNames)
	}
	full := first + " " + pick(g.rng, surnames)
	return &full
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func dedupKey(name, phone string) string {
	return strings.ToLower(name) + "|" + phone
}
