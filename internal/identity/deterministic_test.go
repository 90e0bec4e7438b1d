package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestRepositoryConfigUUIDIsCaseInsensitive(t *testing.T) {
	a := RepositoryConfigUUID("Acme/Policies")
	b := RepositoryConfigUUID(" acme/policies ")
	if a != b {
		t.Fatalf("expected identical ids, got %s and %s", a, b)
	}
	if a == uuid.Nil {
		t.Fatal("expected non-nil id")
	}
}

func TestCrossDomainRuleUUIDDependsOnPosition(t *testing.T) {
	config := RepositoryConfigUUID("acme/policies")
	if CrossDomainRuleUUID(config, "policies/**", 0) == CrossDomainRuleUUID(config, "policies/**", 1) {
		t.Fatal("expected distinct ids per position")
	}
}

func TestDeliveryUUIDKeepsValidUUID(t *testing.T) {
	id := uuid.New()
	if got := DeliveryUUID(id.String()); got != id {
		t.Fatalf("expected %s, got %s", id, got)
	}
	if DeliveryUUID("delivery-1") == uuid.Nil {
		t.Fatal("expected hashed id for non uuid delivery")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if UUID("  ") != uuid.Nil {
		t.Fatal("expected nil uuid for empty key")
	}
}
