package binding

import (
	"testing"

	"github.com/ByLCY/rubytext/ruby"
)

func sampleData() any {
	return map[string]interface{}{
		"user": map[string]interface{}{
			"name": "山田",
			"tags": []interface{}{"a", "{x}"},
		},
		"count": 3,
	}
}

func TestInterpolate(t *testing.T) {
	data := sampleData()
	if got := Interpolate("こんにちは ${user.name} (${count})", data); got != "こんにちは 山田 (3)" {
		t.Fatalf("unexpected result: %s", got)
	}
	if got := Interpolate("${user.tags[1]}", data); got != "{x}" {
		t.Fatalf("plain interpolation must keep braces, got %s", got)
	}
	if got := Interpolate("${user.missing}", data); got != "${user.missing}" {
		t.Fatalf("missing path should keep placeholder, got %s", got)
	}
	if got := Interpolate("${user.tags[5]}", data); got != "${user.tags[5]}" {
		t.Fatalf("out of range index should keep placeholder, got %s", got)
	}
	if got := Interpolate("${user.name}", nil); got != "${user.name}" {
		t.Fatalf("nil data should keep text, got %s", got)
	}
}

func TestInterpolateRubyEscapesValues(t *testing.T) {
	data := map[string]interface{}{
		"word":    `{"rb": "x", "rt": "y"}`,
		"reading": "か}ん",
	}
	text := InterpolateRuby(`${word}{"rb": "漢", "rt": "${reading}"}`, data)
	frags, err := ruby.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("injected marker must stay literal, got %d fragments: %#v", len(frags), frags)
	}
	if head, ok := frags[0].(ruby.Text); !ok || string(head) != `{"rb": "x", "rt": "y"}` {
		t.Fatalf("unexpected head: %#v", frags[0])
	}
	unit, ok := frags[1].(*ruby.RubyUnit)
	if !ok || unit.Base != "漢" || unit.Reading != "か}ん" {
		t.Fatalf("unexpected ruby unit: %#v", frags[1])
	}
}

func TestEscapeBraces(t *testing.T) {
	if got := EscapeBraces("a{b}c"); got != `a\{b\}c` {
		t.Fatalf("unexpected escape: %s", got)
	}
}
