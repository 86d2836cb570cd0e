package district

import "testing"

func TestAllHasThirtyNineEntries(t *testing.T) {
	if Count() != 39 {
		t.Fatalf("expected 39 districts, got %d", Count())
	}

	seen := make(map[string]struct{}, len(All))
	for _, d := range All {
		if d == "" {
			t.Fatalf("empty district name in enumeration")
		}
		if _, dup := seen[d]; dup {
			t.Fatalf("duplicate district %q", d)
		}
		seen[d] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	for _, d := range []string{"Kadıköy", "Şile", "Zeytinburnu"} {
		if !Valid(d) {
			t.Fatalf("expected %q to be a valid district", d)
		}
	}

	for _, d := range []string{"", "Ankara", "kadıköy", "Kadikoy"} {
		if Valid(d) {
			t.Fatalf("expected %q to be rejected", d)
		}
	}
}

func TestMajorIsSubsetOfAll(t *testing.T) {
	for d := range Major {
		if !Valid(d) {
			t.Fatalf("major district %q missing from enumeration", d)
		}
	}
}
