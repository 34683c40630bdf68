package privacy

import (
	"testing"

	"hazard-report/internal/domain/model"
)

func TestMaskEmail(t *testing.T) {
	if got := MaskEmail("alice@example.com"); got != "a****@example.com" {
		t.Fatalf("got=%q", got)
	}
	if got := MaskEmail("@example.com"); got != "<masked>" {
		t.Fatalf("got=%q", got)
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("+91 98765 43210"); got != "******210" {
		t.Fatalf("got=%q", got)
	}
	if got := MaskPhone("12"); got != "<masked>" {
		t.Fatalf("got=%q", got)
	}
}

func TestMaskContact(t *testing.T) {
	cases := map[string]string{
		"":                              "",
		"ana@example.com":               "a****@example.com",
		"ana@example.com / +1 555-0100": "a****@example.com / ******100",
		"ana@example.com, 0800 123 456": "a****@example.com / ******456",
		"call the front desk":           "<masked>",
	}
	for in, want := range cases {
		if got := MaskContact(in); got != want {
			t.Fatalf("MaskContact(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestMaskFields_KeepsNonPersonalFields(t *testing.T) {
	in := model.Fields{FullName: "Ana Maria Field", Contact: "ana@example.com", Location: "Dock 3"}
	got := MaskFields(in)
	if got.FullName != "A. M. F." {
		t.Fatalf("name=%q", got.FullName)
	}
	if got.Contact != "a****@example.com" {
		t.Fatalf("contact=%q", got.Contact)
	}
	if got.Location != "Dock 3" {
		t.Fatalf("location changed: %q", got.Location)
	}
	if in.FullName != "Ana Maria Field" {
		t.Fatalf("input mutated")
	}
}
