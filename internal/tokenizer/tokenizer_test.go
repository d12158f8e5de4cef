package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenizeBasic(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single word", "hello", []string{"hello"}},
		{"mixed case", "Hello World", []string{"hello", "world"}},
		{"punctuation splits", "foo, bar! baz.", []string{"foo", "bar", "baz"}},
		{"digits are word chars", "doc42 v2", []string{"doc42", "v2"}},
		{"leading and trailing punctuation", "  ...hi...  ", []string{"hi"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Tokenize(c.in)
			if len(got) == 0 && len(c.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("Tokenize(%q) = %#v, want %#v", c.in, got, c.want)
			}
		})
	}
}

// Non-ASCII token dropping, scenario 5 of the build/merge/query test matrix:
// a token containing any byte > 127 is dropped whole, not truncated.
func TestTokenizeDropsNonASCIITokenWhole(t *testing.T) {
	got := Tokenize("café cat")
	want := []string{"cat"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize(%q) = %#v, want %#v", "café cat", got, want)
	}
}

func TestTokenizeNeverEmitsEmptyToken(t *testing.T) {
	got := Tokenize("!!!")
	if len(got) != 0 {
		t.Fatalf("expected no tokens, got %#v", got)
	}
}
