package prompts

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	en := Get(LocaleEN)
	cn := Get(LocaleCN)
	if en == "" || cn == "" {
		t.Fatal("empty prompt")
	}
	if en == cn {
		t.Fatal("locales share a prompt")
	}
	// Unknown locales fall back to English.
	if Get("fr") != en {
		t.Fatal("unknown locale did not fall back to en")
	}

	for name, p := range map[string]string{"en": en, "cn": cn} {
		if !strings.Contains(p, `finish(message=`) {
			t.Fatalf("%s prompt misses the finish call", name)
		}
		if !strings.Contains(p, "<think>") {
			t.Fatalf("%s prompt misses the output format", name)
		}
	}
}
