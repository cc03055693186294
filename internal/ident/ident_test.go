package ident

import "testing"

func TestCanonicalizeIdempotent(t *testing.T) {
	cases := []Raw{
		`"My Variable"`,
		"Birth Rate",
		"a b",
		"already_canonical",
		"Temp\nRate",
	}
	for _, c := range cases {
		once := Canonicalize(c)
		twice := Canonicalize(Raw(once.String()))
		if once != twice {
			t.Fatalf("Canonicalize not idempotent for %q: %q vs %q", c, once, twice)
		}
	}
}

func TestCanonicalizeFoldsCaseAndWhitespace(t *testing.T) {
	got := Canonicalize(`"Birth  Rate"`)
	want := Canonical("birth_rate")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicalizeStripsQuotes(t *testing.T) {
	if Canonicalize(`"quoted"`) != Canonicalize("quoted") {
		t.Fatalf("quoted and unquoted forms should canonicalize the same")
	}
}

func TestCanonicalizeCollapsesNBSP(t *testing.T) {
	got := Canonicalize(Raw("birth rate"))
	want := Canonical("birth_rate")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicalizePreservesDistinctIdentifiers(t *testing.T) {
	a := Canonicalize("interest_rate")
	b := Canonicalize("interest_ratex")
	if a == b {
		t.Fatalf("distinct identifiers must not canonicalize to the same value")
	}
}

func TestCanonicalizePreservesLiteralBoundaryUnderscores(t *testing.T) {
	cases := []struct{ a, b Raw }{
		{"_foo", "foo"},
		{"foo_", "foo"},
		{"_foo_", "foo"},
	}
	for _, c := range cases {
		if Canonicalize(c.a) == Canonicalize(c.b) {
			t.Fatalf("%q and %q differ by more than case/spacing and must canonicalize distinctly, both got %q",
				c.a, c.b, Canonicalize(c.a))
		}
	}
}
