package availability

import (
	"testing"

	"github.com/dakthi/venuebook/internal/model"
)

func TestResolveWindow_NoRuleUsesDefault(t *testing.T) {
	w := ResolveWindow(nil)
	if !w.Open {
		t.Fatal("expected default window to be open")
	}
	if w.StartMinute != 540 || w.EndMinute != 1320 {
		t.Fatalf("expected 09:00-22:00 default, got %d-%d", w.StartMinute, w.EndMinute)
	}
}

func TestResolveWindow_RuleApplied(t *testing.T) {
	rule := &model.OperatingHoursRule{Weekday: 1, StartMinute: 600, EndMinute: 1080, Available: true}
	w := ResolveWindow(rule)
	if !w.Open || w.StartMinute != 600 || w.EndMinute != 1080 {
		t.Fatalf("expected open 10:00-18:00, got %+v", w)
	}
}

func TestResolveWindow_UnavailableClosesDay(t *testing.T) {
	rule := &model.OperatingHoursRule{Weekday: 0, StartMinute: 540, EndMinute: 1320, Available: false}
	w := ResolveWindow(rule)
	if w.Open {
		t.Fatal("expected closed day when rule is unavailable")
	}
}
