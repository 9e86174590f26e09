package catalog

import (
	"math/rand"
	"testing"

	"trainsched/internal/models"
)

func newTestCatalog() *Static {
	return NewStatic(rand.New(rand.NewSource(1)))
}

func TestPickRespectsEquipment(t *testing.T) {
	cat := newTestCatalog()

	for i := 0; i < 50; i++ {
		tmpl := cat.Pick(models.StrengthFull, models.EquipmentBodyweight, nil)
		if tmpl == nil {
			t.Fatal("Expected a bodyweight full-body template")
		}
		if tmpl.MinEquipment != models.EquipmentBodyweight {
			t.Fatalf("Template %s requires %s, athlete has bodyweight only", tmpl.ID, tmpl.MinEquipment)
		}
	}
}

func TestPickFullGymSeesAllTiers(t *testing.T) {
	cat := newTestCatalog()

	tiers := make(map[models.EquipmentTier]bool)
	for i := 0; i < 200; i++ {
		tmpl := cat.Pick(models.StrengthFull, models.EquipmentFullGym, nil)
		if tmpl == nil {
			t.Fatal("Expected a template")
		}
		tiers[tmpl.MinEquipment] = true
	}
	if len(tiers) < 2 {
		t.Errorf("Expected full-gym athletes to draw from multiple tiers, saw %v", tiers)
	}
}

func TestPickExhaustedPoolAcceptsRepeats(t *testing.T) {
	cat := newTestCatalog()

	// Exclude every mobility template, then ask again
	exclude := make(map[string]bool)
	for _, tmpl := range cat.templates {
		if tmpl.SessionType == models.Mobility {
			exclude[tmpl.ID] = true
		}
	}

	tmpl := cat.Pick(models.Mobility, models.EquipmentBodyweight, exclude)
	if tmpl == nil {
		t.Fatal("Expected a repeat rather than nil when pool is exhausted")
	}
	if tmpl.SessionType != models.Mobility {
		t.Errorf("Expected mobility template, got %s", tmpl.SessionType)
	}
}

func TestPickUnknownTypeReturnsNil(t *testing.T) {
	cat := newTestCatalog()

	if tmpl := cat.Pick(models.Rest, models.EquipmentFullGym, nil); tmpl != nil {
		t.Errorf("Expected nil for REST, got %s", tmpl.ID)
	}
}

func TestContentCopiesSlices(t *testing.T) {
	cat := newTestCatalog()

	tmpl := cat.Pick(models.StrengthUpper, models.EquipmentFullGym, nil)
	if tmpl == nil {
		t.Fatal("Expected a template")
	}

	content := tmpl.Content()
	if len(content.Main) == 0 {
		t.Fatal("Expected main block exercises")
	}
	original := tmpl.Main[0].Sets
	content.Main[0].Sets = original + 10

	if tmpl.Main[0].Sets != original {
		t.Error("Mutating content leaked into the template table")
	}
}

func TestEveryTypeHasBodyweightCoverage(t *testing.T) {
	cat := newTestCatalog()

	// Every plannable type must resolve for the least-equipped athlete so a
	// bodyweight-only plan never comes up empty
	types := []models.SessionType{
		models.StrengthPush, models.StrengthPull, models.StrengthUpper,
		models.StrengthLower, models.StrengthFull,
		models.EnduranceZone2, models.EnduranceTempo, models.EnduranceIntervals,
		models.HIIT, models.Mobility, models.ActiveRecovery,
	}
	for _, st := range types {
		if tmpl := cat.Pick(st, models.EquipmentBodyweight, nil); tmpl == nil {
			t.Errorf("No bodyweight template for %s", st)
		}
	}
}
