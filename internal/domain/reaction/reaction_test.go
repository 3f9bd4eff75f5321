package reaction

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, k := range All {
		got, err := ParseKind(string(k))
		if err != nil {
			t.Fatalf("parse %s: %v", k, err)
		}
		if got != k {
			t.Errorf("expected %s, got %s", k, got)
		}
	}

	if _, err := ParseKind("Photosynthesis"); !errors.Is(err, ErrUnknownReaction) {
		t.Errorf("expected ErrUnknownReaction, got %v", err)
	}
}

func TestRegistryCoversCatalog(t *testing.T) {
	if len(Registry) != len(All) {
		t.Fatalf("registry has %d entries, catalog has %d", len(Registry), len(All))
	}
	for _, k := range All {
		def, ok := Get(k)
		if !ok || def.Name == "" {
			t.Errorf("missing definition for %s", k)
		}
	}
}
