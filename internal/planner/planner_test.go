package planner

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/conorfennell/studyhall/internal/domain"
)

func TestAllocateBalancesAcrossDays(t *testing.T) {
	topics := []domain.Topic{
		{Name: "Math", Weight: 4},
		{Name: "Bio", Weight: 2},
		{Name: "Hist", Weight: 3},
	}

	days, err := Allocate(3, topics, 4)
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}

	// Heaviest first onto the least loaded day: Math fills day 0, Hist takes
	// day 1, Bio takes day 2.
	wantNames := [][]string{{"Math"}, {"Hist"}, {"Bio"}}
	wantHours := []float64{4, 3, 2}
	for i, day := range days {
		if day.DayIndex != i {
			t.Errorf("days[%d].DayIndex = %d, want %d", i, day.DayIndex, i)
		}
		var names []string
		for _, topic := range day.Topics {
			names = append(names, topic.Name)
		}
		if !reflect.DeepEqual(names, wantNames[i]) {
			t.Errorf("day %d topics = %v, want %v", i, names, wantNames[i])
		}
		if day.TotalHours != wantHours[i] {
			t.Errorf("day %d TotalHours = %v, want %v", i, day.TotalHours, wantHours[i])
		}
	}
}

func TestAllocatePlacesEveryTopic(t *testing.T) {
	topics := []domain.Topic{
		{Name: "a", Weight: 5},
		{Name: "b", Weight: 1.5},
		{Name: "c", Weight: 2},
		{Name: "d", Weight: 7},
		{Name: "e", Weight: 0.5},
		{Name: "f", Weight: 3},
	}

	days, err := Allocate(2, topics, 4)
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}

	placed := 0
	var totalHours, totalWeight float64
	for _, day := range days {
		placed += len(day.Topics)
		totalHours += day.TotalHours
	}
	for _, topic := range topics {
		totalWeight += topic.Weight
	}

	if placed != len(topics) {
		t.Errorf("placed %d topics, want %d (no topic may be dropped)", placed, len(topics))
	}
	if math.Abs(totalHours-totalWeight) > 1e-9 {
		t.Errorf("sum of TotalHours = %v, want %v", totalHours, totalWeight)
	}
}

func TestAllocatePrefersCapacityOverOverflow(t *testing.T) {
	// Day 0 ends up loaded to the cap; the last topic still fits on day 1 and
	// must land there rather than overflow day 0.
	topics := []domain.Topic{
		{Name: "big", Weight: 4},
		{Name: "mid", Weight: 3},
		{Name: "small", Weight: 1},
	}

	days, err := Allocate(2, topics, 4)
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}

	if days[0].TotalHours != 4 || days[1].TotalHours != 4 {
		t.Errorf("loads = [%v %v], want [4 4]", days[0].TotalHours, days[1].TotalHours)
	}
	if len(days[1].Topics) != 2 || days[1].Topics[1].Name != "small" {
		t.Errorf("day 1 topics = %v, want [mid small]", days[1].Topics)
	}
}

func TestAllocateForcedOverflow(t *testing.T) {
	topics := []domain.Topic{
		{Name: "marathon", Weight: 9},
		{Name: "sprint", Weight: 2},
	}

	days, err := Allocate(2, topics, 4)
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}

	// The 9h topic fits nowhere; it overflows onto day 0 (least loaded,
	// lowest index). The 2h topic then goes to day 1 normally.
	if len(days[0].Topics) != 1 || days[0].Topics[0].Name != "marathon" {
		t.Errorf("day 0 topics = %v, want [marathon]", days[0].Topics)
	}
	if days[0].TotalHours != 9 {
		t.Errorf("day 0 TotalHours = %v, want 9", days[0].TotalHours)
	}
	if len(days[1].Topics) != 1 || days[1].Topics[0].Name != "sprint" {
		t.Errorf("day 1 topics = %v, want [sprint]", days[1].Topics)
	}
}

func TestAllocateStableTieBreaks(t *testing.T) {
	// Equal weights: input order decides which day a topic lands on, and the
	// whole output must be reproducible.
	topics := []domain.Topic{
		{Name: "first", Weight: 2},
		{Name: "second", Weight: 2},
		{Name: "third", Weight: 2},
	}

	days, err := Allocate(3, topics, 4)
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}

	for i, want := range []string{"first", "second", "third"} {
		if len(days[i].Topics) != 1 || days[i].Topics[0].Name != want {
			t.Errorf("day %d topics = %v, want [%s]", i, days[i].Topics, want)
		}
	}

	again, err := Allocate(3, topics, 4)
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if !reflect.DeepEqual(days, again) {
		t.Errorf("identical input produced different schedules:\n%v\n%v", days, again)
	}
}

func TestAllocateInvalidRequest(t *testing.T) {
	topics := []domain.Topic{{Name: "x", Weight: 1}}

	tests := []struct {
		name   string
		days   int
		topics []domain.Topic
	}{
		{"zero days", 0, topics},
		{"negative days", -3, topics},
		{"no topics", 5, nil},
		{"empty topics", 5, []domain.Topic{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate(tt.days, tt.topics, 4)
			if !errors.Is(err, ErrInvalidScheduleRequest) {
				t.Errorf("err = %v, want ErrInvalidScheduleRequest", err)
			}
		})
	}
}

func TestAllocateDoesNotMutateInput(t *testing.T) {
	topics := []domain.Topic{
		{Name: "light", Weight: 1},
		{Name: "heavy", Weight: 6},
	}
	want := make([]domain.Topic, len(topics))
	copy(want, topics)

	if _, err := Allocate(2, topics, 4); err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if !reflect.DeepEqual(topics, want) {
		t.Errorf("input slice mutated: %v", topics)
	}
}
