package textutil

import "testing"

func TestNormalizeStripsDiacriticsAndPunctuation(t *testing.T) {
	cases := map[string]string{
		"  Grote  Gele Kwikstaart ": "grote gele kwikstaart",
		"Koolmees!":                 "koolmees",
		"drieëntwintig":             "drieentwintig",
		"één":                       "een",
		"bonte & zwarte kraai":      "bonte en zwarte kraai",
		"":                          "",
		"   ":                       "",
	}
	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("grote gele kwikstaart")
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if TokenCount("") != 0 {
		t.Fatalf("expected zero tokens for empty input")
	}
}

func TestDisplayTitle(t *testing.T) {
	if got := DisplayTitle("buizerd"); got != "Buizerd" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}
