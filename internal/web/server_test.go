package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
	"github.com/conorfennell/studyhall/internal/storage"
)

var fixedNow = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "web_test.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := NewServer(db, Config{
		ReviewQueueLimit: 20,
		MatchLimit:       10,
		HoursPerDay:      4,
		ReposDir:         t.TempDir(),
	})
	srv.now = func() time.Time { return fixedNow }
	return srv, db
}

func doJSON(t *testing.T, srv *Server, method, path string, user domain.UserID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(int64(user), 10))
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestMissingUserHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/flashcards", 0, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without X-User-ID", rec.Code)
	}
}

func TestFlashcardCreateAndReview(t *testing.T) {
	srv, db := newTestServer(t)
	user, err := db.InsertUser("reviewer@campus.edu")
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, "/flashcards", user, map[string]any{
		"front": "What is amortized analysis?",
		"back":  "Averaging cost over a sequence of operations.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)["flashcard"].(map[string]any)
	id := int64(created["id"].(float64))

	// First correct review: easy -> medium, base 3 days * 1.1 -> 3 days out.
	rec = doJSON(t, srv, http.MethodPost, "/flashcards/"+strconv.FormatInt(id, 10)+"/review", user, map[string]any{
		"correct": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("review status = %d, body %s", rec.Code, rec.Body.String())
	}
	reviewed := decodeBody(t, rec)["flashcard"].(map[string]any)
	if got := int(reviewed["difficulty"].(float64)); got != domain.DifficultyMedium {
		t.Errorf("difficulty = %d, want %d", got, domain.DifficultyMedium)
	}
	if got := int(reviewed["review_count"].(float64)); got != 1 {
		t.Errorf("review_count = %d, want 1", got)
	}
	wantNext := fixedNow.AddDate(0, 0, 3).Format(time.RFC3339)
	if got := reviewed["next_review"].(string); got != wantNext {
		t.Errorf("next_review = %s, want %s", got, wantNext)
	}

	// Incorrect review: back to easy, due again in an hour.
	rec = doJSON(t, srv, http.MethodPost, "/flashcards/"+strconv.FormatInt(id, 10)+"/review", user, map[string]any{
		"correct": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("review status = %d, body %s", rec.Code, rec.Body.String())
	}
	reviewed = decodeBody(t, rec)["flashcard"].(map[string]any)
	if got := int(reviewed["difficulty"].(float64)); got != domain.DifficultyEasy {
		t.Errorf("difficulty = %d, want %d after a miss", got, domain.DifficultyEasy)
	}
	wantNext = fixedNow.Add(time.Hour).Format(time.RFC3339)
	if got := reviewed["next_review"].(string); got != wantNext {
		t.Errorf("next_review = %s, want %s after a miss", got, wantNext)
	}
}

func TestReviewUnknownCard(t *testing.T) {
	srv, db := newTestServer(t)
	user, _ := db.InsertUser("nobody@campus.edu")

	rec := doJSON(t, srv, http.MethodPost, "/flashcards/12345/review", user, map[string]any{"correct": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown card", rec.Code)
	}
}

func TestReviewQueueOrderAndLimit(t *testing.T) {
	srv, db := newTestServer(t)
	user, _ := db.InsertUser("queue@campus.edu")

	// Three due cards with staggered due times, one card in the future.
	for i, offset := range []time.Duration{-time.Hour, -3 * time.Hour, -2 * time.Hour, time.Hour} {
		card := domain.Flashcard{
			UserID:     user,
			Front:      "card " + strconv.Itoa(i),
			Back:       "back",
			NextReview: fixedNow.Add(offset),
			CreatedAt:  fixedNow,
		}
		if _, err := db.InsertFlashcard(card); err != nil {
			t.Fatalf("InsertFlashcard: %v", err)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/flashcards/review-queue", user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	queue := body["review_queue"].([]any)
	if len(queue) != 3 {
		t.Fatalf("queue has %d cards, want 3 (future card excluded)", len(queue))
	}
	// Earliest due first: card 1 (-3h), card 2 (-2h), card 0 (-1h).
	wantOrder := []string{"card 1", "card 2", "card 0"}
	for i, want := range wantOrder {
		got := queue[i].(map[string]any)["front"].(string)
		if got != want {
			t.Errorf("queue[%d] = %q, want %q", i, got, want)
		}
	}

	srv.cfg.ReviewQueueLimit = 2
	rec = doJSON(t, srv, http.MethodGet, "/flashcards/review-queue", user, nil)
	if got := len(decodeBody(t, rec)["review_queue"].([]any)); got != 2 {
		t.Errorf("queue has %d cards with limit 2", got)
	}
}

func TestCreateStudyPlan(t *testing.T) {
	srv, db := newTestServer(t)
	user, _ := db.InsertUser("planner@campus.edu")

	rec := doJSON(t, srv, http.MethodPost, "/study-plans", user, map[string]any{
		"title":     "Midterm prep",
		"exam_date": "2025-05-04", // three days out from fixedNow
		"topics": []map[string]any{
			{"name": "Math", "weight": 4},
			{"name": "Bio", "weight": 2},
			{"name": "Hist", "weight": 3},
		},
		"hours_per_day": 4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	schedule := body["schedule"].([]any)
	if len(schedule) != 3 {
		t.Fatalf("schedule has %d days, want 3", len(schedule))
	}

	// Heaviest-first, least-loaded-day placement: Math, then Hist, then Bio.
	wantHours := []float64{4, 3, 2}
	wantDates := []string{"2025-05-02", "2025-05-03", "2025-05-04"}
	for i, raw := range schedule {
		day := raw.(map[string]any)
		if got := day["total_hours"].(float64); got != wantHours[i] {
			t.Errorf("day %d total_hours = %v, want %v", i, got, wantHours[i])
		}
		if got := day["date"].(string); got != wantDates[i] {
			t.Errorf("day %d date = %s, want %s", i, got, wantDates[i])
		}
	}

	// The plan is persisted and retrievable.
	planID := int64(body["plan_id"].(float64))
	rec = doJSON(t, srv, http.MethodGet, "/study-plans/"+strconv.FormatInt(planID, 10), user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	detail := decodeBody(t, rec)
	if detail["title"].(string) != "Midterm prep" {
		t.Errorf("title = %v, want Midterm prep", detail["title"])
	}
	if got := len(detail["schedule"].([]any)); got != 3 {
		t.Errorf("persisted schedule has %d days, want 3", got)
	}
}

func TestCreateStudyPlanRejectsPastExam(t *testing.T) {
	srv, db := newTestServer(t)
	user, _ := db.InsertUser("late@campus.edu")

	rec := doJSON(t, srv, http.MethodPost, "/study-plans", user, map[string]any{
		"exam_date": "2025-04-01",
		"topics":    []map[string]any{{"name": "Math", "weight": 2}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a past exam date", rec.Code)
	}
}

func TestCreateStudyPlanRejectsMissingTopics(t *testing.T) {
	srv, db := newTestServer(t)
	user, _ := db.InsertUser("empty@campus.edu")

	rec := doJSON(t, srv, http.MethodPost, "/study-plans", user, map[string]any{
		"exam_date": "2025-05-10",
		"topics":    []map[string]any{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for no topics", rec.Code)
	}
}

func seedMatchingUsers(t *testing.T, db *storage.DB) (a, b, c domain.UserID) {
	t.Helper()
	a, _ = db.InsertUser("a@campus.edu")
	b, _ = db.InsertUser("b@campus.edu")
	c, _ = db.InsertUser("c@campus.edu")

	courses := make([]domain.CourseID, 5)
	for i := range courses {
		id, err := db.InsertCourse("Course "+strconv.Itoa(i), "C"+strconv.Itoa(i))
		if err != nil {
			t.Fatalf("InsertCourse: %v", err)
		}
		courses[i] = id
	}

	// a: {0,1,2}, b: {1,2,3}, c: {4}. a and b share two courses, c none.
	for _, cid := range courses[:3] {
		db.Enroll(a, cid)
	}
	for _, cid := range courses[1:4] {
		db.Enroll(b, cid)
	}
	db.Enroll(c, courses[4])
	return a, b, c
}

func TestFindPartners(t *testing.T) {
	srv, db := newTestServer(t)
	a, b, _ := seedMatchingUsers(t, db)

	rec := doJSON(t, srv, http.MethodGet, "/partners/find", a, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	partners := body["partners"].([]any)
	if len(partners) != 1 {
		t.Fatalf("got %d candidates, want 1 (zero-overlap user excluded)", len(partners))
	}
	match := partners[0].(map[string]any)
	if got := domain.UserID(match["user_id"].(float64)); got != b {
		t.Errorf("candidate = %d, want %d", got, b)
	}
	if got := match["shared_courses"].(float64); got != 2 {
		t.Errorf("shared_courses = %v, want 2", got)
	}
	// 2/3 as a percentage, rounded to two decimals.
	if got := match["match_score"].(float64); got != 66.67 {
		t.Errorf("match_score = %v, want 66.67", got)
	}
	if got := match["status"].(string); got != "none" {
		t.Errorf("status = %q, want none", got)
	}
}

func TestPartnershipWorkflow(t *testing.T) {
	srv, db := newTestServer(t)
	a, b, _ := seedMatchingUsers(t, db)

	t.Run("self request rejected", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/partners/request", a, map[string]any{"partner_id": a})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	rec := doJSON(t, srv, http.MethodPost, "/partners/request", a, map[string]any{"partner_id": b})
	if rec.Code != http.StatusCreated {
		t.Fatalf("request status = %d, body %s", rec.Code, rec.Body.String())
	}
	partnership := decodeBody(t, rec)["partnership"].(map[string]any)
	id := int64(partnership["id"].(float64))
	if got := partnership["status"].(string); got != storage.PartnershipPending {
		t.Errorf("status = %q, want pending", got)
	}

	t.Run("duplicate request rejected either direction", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/partners/request", b, map[string]any{"partner_id": a})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("only recipient can accept", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/partners/"+strconv.FormatInt(id, 10)+"/accept", a, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403 for the requester", rec.Code)
		}
	})

	rec = doJSON(t, srv, http.MethodPost, "/partners/"+strconv.FormatInt(id, 10)+"/accept", b, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body %s", rec.Code, rec.Body.String())
	}

	t.Run("deciding twice rejected", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/partners/"+strconv.FormatInt(id, 10)+"/reject", b, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400 once decided", rec.Code)
		}
	})

	rec = doJSON(t, srv, http.MethodGet, "/partners", a, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeBody(t, rec)["partners"].([]any)
	if len(list) != 1 {
		t.Fatalf("got %d partnerships, want 1", len(list))
	}
	entry := list[0].(map[string]any)
	if got := entry["status"].(string); got != storage.PartnershipAccepted {
		t.Errorf("status = %q, want accepted", got)
	}
	if got := entry["partner_email"].(string); got != "b@campus.edu" {
		t.Errorf("partner_email = %q, want b@campus.edu", got)
	}
}

func TestSourceManagement(t *testing.T) {
	srv, db := newTestServer(t)
	user, _ := db.InsertUser("decks@campus.edu")

	rec := doJSON(t, srv, http.MethodPost, "/sources", user, map[string]any{
		"path": "https://github.com/example/decks.git",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}
	source := decodeBody(t, rec)["source"].(map[string]any)
	if got := source["type"].(string); got != storage.SourceGit {
		t.Errorf("type = %q, want git", got)
	}
	id := int64(source["id"].(float64))

	t.Run("duplicate path rejected", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/sources", user, map[string]any{
			"path": "https://github.com/example/decks.git",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	rec = doJSON(t, srv, http.MethodGet, "/sources", user, nil)
	if got := len(decodeBody(t, rec)["sources"].([]any)); got != 1 {
		t.Errorf("listed %d sources, want 1", got)
	}

	t.Run("other users cannot delete", func(t *testing.T) {
		other, _ := db.InsertUser("other@campus.edu")
		rec := doJSON(t, srv, http.MethodDelete, "/sources/"+strconv.FormatInt(id, 10), other, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	rec = doJSON(t, srv, http.MethodDelete, "/sources/"+strconv.FormatInt(id, 10), user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/sources", user, nil)
	if got := len(decodeBody(t, rec)["sources"].([]any)); got != 0 {
		t.Errorf("listed %d sources after delete, want 0", got)
	}
}
