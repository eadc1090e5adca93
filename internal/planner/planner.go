// Package planner partitions weighted study topics across the days remaining
// before an exam.
//
// The allocator is a longest-processing-time-first list scheduler with a soft
// daily cap: heaviest topics are placed first on the least-loaded day that
// still has room, and a topic that fits nowhere overflows onto the least
// loaded day rather than being dropped. It is a balancing heuristic, not an
// exact bin-packing solver, and the overflow behavior is part of the
// contract.
package planner

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/conorfennell/studyhall/internal/domain"
)

// ErrInvalidScheduleRequest reports an allocation request with no days or no
// topics. Check with errors.Is.
var ErrInvalidScheduleRequest = errors.New("planner: invalid schedule request")

// Allocate assigns every topic to exactly one of daysAvailable days, keeping
// per-day hours balanced and under maxHoursPerDay where possible.
//
// The result is deterministic: topics are taken heaviest first with ties
// keeping their input order, and day ties always resolve to the lowest index.
// Once the preconditions hold, Allocate never fails and never drops a topic;
// a day's TotalHours exceeds the cap only when no day could hold the topic.
func Allocate(daysAvailable int, topics []domain.Topic, maxHoursPerDay float64) ([]domain.DailyAllocation, error) {
	if daysAvailable < 1 {
		return nil, fmt.Errorf("%w: days available must be at least 1, got %d", ErrInvalidScheduleRequest, daysAvailable)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: no topics to schedule", ErrInvalidScheduleRequest)
	}

	ordered := make([]domain.Topic, len(topics))
	copy(ordered, topics)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Weight > ordered[j].Weight
	})

	days := make([]domain.DailyAllocation, daysAvailable)
	for i := range days {
		days[i].DayIndex = i
	}
	hours := make([]float64, daysAvailable)

	for _, topic := range ordered {
		day := fittingDay(hours, topic.Weight, maxHoursPerDay)
		if day < 0 {
			// Nothing has room: overflow onto the least loaded day.
			day = leastLoadedDay(hours)
		}
		days[day].Topics = append(days[day].Topics, topic)
		hours[day] += topic.Weight
		days[day].TotalHours = hours[day]
	}

	return days, nil
}

// fittingDay returns the least-loaded day that can take weight without
// breaking the cap, or -1 if none can. The lowest index wins ties.
func fittingDay(hours []float64, weight, cap float64) int {
	best := -1
	minLoad := math.Inf(1)
	for i, h := range hours {
		if h+weight <= cap && h < minLoad {
			minLoad = h
			best = i
		}
	}
	return best
}

// leastLoadedDay returns the day with the global minimum load, lowest index
// on ties.
func leastLoadedDay(hours []float64) int {
	best := 0
	for i := 1; i < len(hours); i++ {
		if hours[i] < hours[best] {
			best = i
		}
	}
	return best
}
