// Package district holds the fixed enumeration of Istanbul's administrative
// districts used as the categorical geography of the company directory.
package district

// All lists the 39 Istanbul districts in alphabetical (Turkish) order. The
// dataset validator and the generator both treat this slice as authoritative.
var All = []string{
	"Adalar", "Arnavutköy", "Ataşehir", "Avcılar", "Bağcılar", "Bahçelievler",
	"Bakırköy", "Başakşehir", "Bayrampaşa", "Beşiktaş", "Beykoz", "Beylikdüzü",
	"Beyoğlu", "Büyükçekmece", "Çatalca", "Çekmeköy", "Esenler", "Esenyurt",
	"Eyüpsultan", "Fatih", "Gaziosmanpaşa", "Güngören", "Kadıköy", "Kağıthane",
	"Kartal", "Küçükçekmece", "Maltepe", "Pendik", "Sancaktepe", "Sarıyer",
	"Silivri", "Şile", "Şişli", "Sultangazi", "Sultanbeyli", "Tuzla",
	"Ümraniye", "Üsküdar", "Zeytinburnu",
}

// Major marks the districts that concentrate most of the city's real estate
// activity; the generator allocates extra records to them.
var Major = map[string]struct{}{
	"Fatih":    {},
	"Beyoğlu":  {},
	"Şişli":    {},
	"Beşiktaş": {},
	"Kadıköy":  {},
	"Ataşehir": {},
	"Sarıyer":  {},
}

var index = func() map[string]struct{} {
	m := make(map[string]struct{}, len(All))
	for _, d := range All {
		m[d] = struct{}{}
	}
	return m
}()

// Valid reports whether name is one of the 39 known districts. Matching is
// exact: district values are stored canonically, never free-form.
func Valid(name string) bool {
	_, ok := index[name]
	return ok
}

// Count returns the number of districts in the enumeration.
func Count() int {
	return len(All)
}
