package dataset

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/viant/wordvec/vocab"
)

func TestWindows(t *testing.T) {
	tokens := strings.Fields("a b c d e f g")
	windows, err := Windows(tokens, 2)
	if err != nil {
		t.Fatalf("Windows failed: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("len(windows) = %d, want 3", len(windows))
	}
	first := windows[0]
	if first.Target != "c" {
		t.Fatalf("windows[0].Target = %q, want %q", first.Target, "c")
	}
	if want := []string{"a", "b", "d", "e"}; !reflect.DeepEqual(first.Context, want) {
		t.Fatalf("windows[0].Context = %v, want %v", first.Context, want)
	}
	for i, target := range []string{"c", "d", "e"} {
		if windows[i].Target != target {
			t.Fatalf("windows[%d].Target = %q, want %q", i, windows[i].Target, target)
		}
	}
}

func TestWindowsCount(t *testing.T) {
	cases := []struct {
		tokens     int
		windowSize int
		want       int
	}{
		{tokens: 7, windowSize: 2, want: 3},
		{tokens: 5, windowSize: 1, want: 3},
		{tokens: 5, windowSize: 2, want: 1},
		{tokens: 4, windowSize: 2, want: 0},
		{tokens: 1, windowSize: 3, want: 0},
		{tokens: 0, windowSize: 1, want: 0},
	}
	for _, tc := range cases {
		tokens := make([]string, tc.tokens)
		for i := range tokens {
			tokens[i] = string(rune('a' + i))
		}
		windows, err := Windows(tokens, tc.windowSize)
		if err != nil {
			t.Fatalf("Windows(%d tokens, w=%d) failed: %v", tc.tokens, tc.windowSize, err)
		}
		if len(windows) != tc.want {
			t.Fatalf("Windows(%d tokens, w=%d) produced %d windows, want %d", tc.tokens, tc.windowSize, len(windows), tc.want)
		}
	}
}

func TestWindowsRejectsNonPositiveSize(t *testing.T) {
	for _, w := range []int{0, -1} {
		_, err := Windows([]string{"a", "b", "c"}, w)
		var cfg *ConfigError
		if !errors.As(err, &cfg) {
			t.Fatalf("Windows(w=%d) error = %v, want ConfigError", w, err)
		}
	}
}

func TestEncodePresence(t *testing.T) {
	row := Encode(4, []int{1, 3, 1})
	if want := []float64{0, 1, 0, 1}; !reflect.DeepEqual(row, want) {
		t.Fatalf("Encode = %v, want %v", row, want)
	}
}

func TestBuild(t *testing.T) {
	tokens := strings.Fields("a b c d e f g")
	v := vocab.Build(tokens)
	set, err := Build(tokens, 2, v)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("set.Len() = %d, want 3", set.Len())
	}
	rows, cols := set.X.Dims()
	if rows != 3 || cols != v.Len() {
		t.Fatalf("X dims = %dx%d, want 3x%d", rows, cols, v.Len())
	}
	// First window: context {a b d e}, target c.
	for tok, want := range map[string]float64{"a": 1, "b": 1, "c": 0, "d": 1, "e": 1, "f": 0, "g": 0} {
		id, err := v.ID(tok)
		if err != nil {
			t.Fatalf("ID(%q) failed: %v", tok, err)
		}
		if got := set.X.At(0, id); got != want {
			t.Fatalf("X[0][%s] = %v, want %v", tok, got, want)
		}
	}
	wantC, _ := v.ID("c")
	if set.Y[0] != wantC {
		t.Fatalf("Y[0] = %d, want id of c (%d)", set.Y[0], wantC)
	}
}

func TestBuildPresenceIsIdempotent(t *testing.T) {
	// "the" appears twice in the single window's context; its column must
	// still be exactly 1.
	tokens := strings.Fields("the cat sat the mat")
	v := vocab.Build(tokens)
	set, err := Build(tokens, 2, v)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("set.Len() = %d, want 1", set.Len())
	}
	theID, err := v.ID("the")
	if err != nil {
		t.Fatalf("ID(the) failed: %v", err)
	}
	if got := set.X.At(0, theID); got != 1 {
		t.Fatalf("X[0][the] = %v, want 1 (presence, not count)", got)
	}
}

func TestBuildShortCorpus(t *testing.T) {
	tokens := strings.Fields("a b c")
	v := vocab.Build(tokens)
	set, err := Build(tokens, 2, v)
	if err != nil {
		t.Fatalf("Build on short corpus failed: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("set.Len() = %d, want 0", set.Len())
	}
	if set.X != nil {
		t.Fatalf("set.X = %v, want nil for empty set", set.X)
	}
}

func TestBuildUnknownToken(t *testing.T) {
	v := vocab.Build([]string{"a", "b"})
	_, err := Build([]string{"a", "b", "z", "a", "b"}, 1, v)
	var unknown *vocab.UnknownTokenError
	if !errors.As(err, &unknown) {
		t.Fatalf("Build error = %v, want UnknownTokenError", err)
	}
}
