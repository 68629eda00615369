package formula_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/silvergrid/formula"
	"github.com/silvergrid/formula/internal/engine"
)

// TestPrintedFormSnapshots pins the canonical printed form, which is
// promised stable across runs: the same text a second formula.Parse
// call on the output would reproduce. A change here
// means either the grammar's printed-form rules changed or the
// factorizer folded/merged the tree differently than before.
func TestPrintedFormSnapshots(t *testing.T) {
	sources := []string{
		"(6 >= 5) AND (4 > 3)",
		"-6 > 5 ? 'Wrong' : 'Right'",
		"(int)65.89",
		"'Pouet'[2] == 'u'[0] && 'Pouet'[1] != 'u'[0]",
		"$Customer.Services[2].code == 'LNGE'",
		"($Customer.Services -> Svc ? $Svc.code == 'WIFI').count == 1",
	}
	eng, err := engine.New(true)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	for _, src := range sources {
		e, err := formula.Parse(eng.Grammar, src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		snaps.MatchSnapshot(t, src, e.String())
	}
}
