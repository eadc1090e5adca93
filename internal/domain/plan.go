package domain

import "time"

// Topic is a unit of study work: an opaque label and the hours it needs.
// Topics are atomic; the allocator never splits one across days.
type Topic struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// DailyAllocation is the work assigned to a single day of a study plan.
// Topics appear in assignment order. TotalHours may exceed the nominal daily
// cap when a topic fit nowhere else (forced overflow).
type DailyAllocation struct {
	DayIndex   int     `json:"day_index"`
	Topics     []Topic `json:"topics"`
	TotalHours float64 `json:"total_hours"`
}

// StudyPlan is a persisted allocation stamped with concrete dates.
type StudyPlan struct {
	ID        int64
	UserID    UserID
	Title     string
	ExamDate  time.Time
	Schedule  []ScheduledDay
	CreatedAt time.Time
}

// ScheduledDay pairs a DailyAllocation with the calendar date it lands on.
type ScheduledDay struct {
	Date       string  `json:"date"`
	DayOfWeek  string  `json:"day_of_week"`
	Topics     []Topic `json:"topics"`
	TotalHours float64 `json:"total_hours"`
}
