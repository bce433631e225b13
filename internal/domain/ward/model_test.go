package ward

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseCondition(t *testing.T) {
	for _, c := range Conditions() {
		got, err := ParseCondition(string(c))
		if err != nil || got != c {
			t.Errorf("ParseCondition(%q) = %q, %v", c, got, err)
		}
	}
	for _, bad := range []string{"", "critico", "Critico", "estable", "Stable"} {
		if _, err := ParseCondition(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestFindPatient(t *testing.T) {
	a := &Patient{ID: uuid.New(), Name: "Juan Pérez"}
	b := &Patient{ID: uuid.New(), Name: "María García"}
	patients := []*Patient{a, nil, b}

	got, ok := FindPatient(patients, b.ID)
	if !ok || got.Name != "María García" {
		t.Fatalf("expected María García, got %+v, %v", got, ok)
	}
	got.Name = "changed"
	if b.Name != "María García" {
		t.Error("FindPatient must return a copy")
	}

	if _, ok := FindPatient(patients, uuid.New()); ok {
		t.Error("expected no match for unknown id")
	}
}
