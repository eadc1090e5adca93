package domain

// UserID identifies a user.
type UserID int64

// CourseID identifies a course.
type CourseID int64

// CourseSet is the set of courses a user is associated with.
type CourseSet map[CourseID]struct{}

// NewCourseSet builds a CourseSet from a list of course IDs.
func NewCourseSet(ids ...CourseID) CourseSet {
	s := make(CourseSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// MatchScore is a directed candidate edge from UserID to PeerID. Score is the
// normalized course overlap, in [0,1], and is symmetric: the edge from the
// peer back to the user carries the same score.
type MatchScore struct {
	UserID UserID
	PeerID UserID
	Shared int
	Score  float64
}
