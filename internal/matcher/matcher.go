// Package matcher scores and ranks candidate study partners from shared
// course enrollment.
//
// BuildGraph is an all-pairs pass, O(U^2 * C) for U users with course sets of
// average size C. That is fine for a single classroom or campus population;
// serving a large population would need an inverted index from course to
// users instead.
package matcher

import (
	"sort"

	"github.com/conorfennell/studyhall/internal/domain"
)

// Graph maps each user to their candidate partners. Users with zero course
// overlap are absent from each other's lists rather than present with score
// zero, so the representation stays sparse.
type Graph map[domain.UserID][]domain.MatchScore

// BuildGraph computes the candidate graph from a snapshot of every user's
// course set. For each pair with at least one shared course it records a
// directed edge both ways, scored shared / max(|A|, |B|, 1); the score is
// symmetric. Edges for a user are ordered by ascending peer ID, which makes
// the graph deterministic regardless of map iteration order.
func BuildGraph(userCourses map[domain.UserID]domain.CourseSet) Graph {
	ids := make([]domain.UserID, 0, len(userCourses))
	for id := range userCourses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	graph := make(Graph)
	for _, a := range ids {
		for _, b := range ids {
			if a == b {
				continue
			}
			shared := Overlap(userCourses[a], userCourses[b])
			if shared == 0 {
				continue
			}
			graph[a] = append(graph[a], domain.MatchScore{
				UserID: a,
				PeerID: b,
				Shared: shared,
				Score:  Score(shared, len(userCourses[a]), len(userCourses[b])),
			})
		}
	}
	return graph
}

// TopMatches returns the best candidates for user, descending by score.
// Equal scores rank by ascending peer ID. A positive limit truncates the
// result; limit <= 0 returns all candidates.
func TopMatches(graph Graph, user domain.UserID, limit int) []domain.MatchScore {
	edges := graph[user]
	ranked := make([]domain.MatchScore, len(edges))
	copy(ranked, edges)

	// Edges come out of BuildGraph in ascending peer order, so a stable sort
	// on score keeps that as the tie break.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Score normalizes a shared-course count against the larger of the two
// course sets, yielding a similarity in [0,1].
func Score(shared, sizeA, sizeB int) float64 {
	denom := sizeA
	if sizeB > denom {
		denom = sizeB
	}
	if denom < 1 {
		denom = 1
	}
	return float64(shared) / float64(denom)
}

// Overlap counts the courses two sets share.
func Overlap(a, b domain.CourseSet) int {
	// Iterate the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for course := range a {
		if _, ok := b[course]; ok {
			n++
		}
	}
	return n
}
