package idgen_test

import (
	"strings"
	"testing"

	"github.com/roadsafety/roadguard/adapters/idgen"
)

func TestUUID_Unique(t *testing.T) {
	gen := idgen.UUID{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.New()
		if len(id) != 36 {
			t.Fatalf("uuid length = %d, want 36", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate uuid: %s", id)
		}
		seen[id] = true
	}
}

func TestNewAPIKey(t *testing.T) {
	k1 := idgen.NewAPIKey()
	k2 := idgen.NewAPIKey()

	if !strings.HasPrefix(k1, idgen.APIKeyPrefix) {
		t.Errorf("key %q missing prefix %q", k1, idgen.APIKeyPrefix)
	}
	if len(k1) != len(idgen.APIKeyPrefix)+48 {
		t.Errorf("key length = %d, want %d", len(k1), len(idgen.APIKeyPrefix)+48)
	}
	if k1 == k2 {
		t.Error("consecutive keys should differ")
	}
}

func TestSequential(t *testing.T) {
	gen := idgen.NewSequential("req_")

	if got := gen.New(); got != "req_1" {
		t.Errorf("first id = %q, want req_1", got)
	}
	if got := gen.New(); got != "req_2" {
		t.Errorf("second id = %q, want req_2", got)
	}

	gen.Reset()
	if got := gen.New(); got != "req_1" {
		t.Errorf("after reset, id = %q, want req_1", got)
	}
}
