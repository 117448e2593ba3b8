package api

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/fitfuel/internal/nutrition"
	"github.com/kalambet/fitfuel/internal/profile"
	"github.com/kalambet/fitfuel/internal/session"
	"github.com/kalambet/fitfuel/internal/storage"
	"github.com/kalambet/fitfuel/internal/workout"
)

const testToken = "test-token-12345"

var testNow = time.Date(2026, 10, 15, 14, 0, 0, 0, time.UTC)

func newTestCoach(store *storage.Store, mgr *profile.Manager) *session.Coach {
	return session.New(session.Deps{
		Estimator: nutrition.NewEstimator(rand.New(rand.NewSource(7))),
		Coach:     workout.NewCoach(rand.New(rand.NewSource(7))),
		State:     mgr,
		Workouts:  store,
		Now:       func() time.Time { return testNow },
	})
}

func setupAppHandler(t *testing.T, token string) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := profile.NewManager(store)

	handler := NewAppHandler(AppDeps{
		Store:   store,
		Profile: mgr,
		Coach:   newTestCoach(store, mgr),
		Token:   token,
	})
	return handler, store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(method, url, body, testToken))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v; body = %s", err, rr.Body.String())
	}
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	decode(t, rr, &body)
	return body.Error.Type
}

func TestHealth(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string]string
	decode(t, rr, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/profile", "", ""))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if typ := errorType(t, rr); typ != "authentication_error" {
		t.Errorf("error type = %q", typ)
	}
}

func TestAuth_WrongToken(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/profile", "", "wrong"))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuth_DisabledWithoutToken(t *testing.T) {
	h, _ := setupAppHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/profile", "", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestGetProfile_Defaults(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodGet, "/profile", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var body StateView
	decode(t, rr, &body)
	if body.Profile.DailyCalorieGoal != 2000 || body.DailyIntake != 0 || body.DarkMode {
		t.Errorf("body = %+v", body)
	}
}

func TestOnboard(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/onboard", `{"name":"  Ada ","dailyCalorieGoal":1800}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/profile", "")
	var body StateView
	decode(t, rr, &body)
	if body.Profile.Name != "Ada" || body.Profile.DailyCalorieGoal != 1800 {
		t.Errorf("profile = %+v", body.Profile)
	}
}

func TestOnboard_BlankName(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/onboard", `{"name":"   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if typ := errorType(t, rr); typ != "invalid_request_error" {
		t.Errorf("error type = %q", typ)
	}
}

func TestOnboard_InvalidBody(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/onboard", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestAnalyzeMeal(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/meals", `{"meal":"chicken and rice","goal":"BuildMuscle"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var a session.Analysis
	decode(t, rr, &a)
	want := nutrition.Macros{Calories: 295, ProteinGrams: 34, CarbGrams: 28, FatGrams: 4}
	if a.Macros != want {
		t.Errorf("Macros = %+v, want %+v", a.Macros, want)
	}
	if a.Plan.Category != workout.BuildMuscle {
		t.Errorf("Plan = %+v", a.Plan)
	}
	if a.Profile.TotalMealsLogged != 1 || a.DailyIntake != 295 {
		t.Errorf("Profile = %+v, intake %d", a.Profile, a.DailyIntake)
	}
}

func TestAnalyzeMeal_DefaultGoal(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	mgr := profile.NewManager(store)
	h := NewAppHandler(AppDeps{
		Store:       store,
		Profile:     mgr,
		Coach:       newTestCoach(store, mgr),
		DefaultGoal: workout.BurnFat,
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/meals", `{"meal":"banana"}`, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var a session.Analysis
	decode(t, rr, &a)
	if a.Goal != workout.BurnFat {
		t.Errorf("Goal = %s, want BurnFat", a.Goal)
	}
}

func TestAnalyzeMeal_Blank(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/meals", `{"meal":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/profile", "")
	var body StateView
	decode(t, rr, &body)
	if body.Profile.TotalMealsLogged != 0 {
		t.Error("blank meal was logged")
	}
}

func TestRoulette(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	for _, body := range []string{"", `{"lastMacros":{"calories":400,"protein":20,"carbs":30,"fat":10}}`} {
		rr := do(t, h, http.MethodPost, "/roulette", body)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
		}
		var rec session.Recommendation
		decode(t, rr, &rec)
		if !rec.Goal.Valid() || rec.Plan.Category != rec.Goal || rec.Message == "" {
			t.Errorf("roulette = %+v", rec)
		}
	}
}

func TestRoulette_ChunkedEmptyBody(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	req := httptest.NewRequest(http.MethodPost, "/roulette", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/roulette", `{"lastMacros":`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("truncated body status = %d, want 400", rr.Code)
	}
}

func TestCheatMeal(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/cheat-meal", `{"meal":"bread and cheese"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var rec session.Recommendation
	decode(t, rr, &rec)
	if rec.Plan.Category != workout.BurnFat || rec.Macros == nil || rec.Macros.Calories != 378 {
		t.Errorf("rec = %+v", rec)
	}

	rr = do(t, h, http.MethodPost, "/cheat-meal", `{"meal":" "}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("blank cheat meal status = %d, want 400", rr.Code)
	}
}

func TestBurnAndListWorkouts(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/burn", `{"meal":"pizza","goal":"BurnFat"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var b session.Burn
	decode(t, rr, &b)
	if b.CountdownSeconds != 1800 || b.ID == "" {
		t.Errorf("burn = %+v", b)
	}

	rr = do(t, h, http.MethodGet, "/workouts", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var list struct {
		Workouts []WorkoutEntry `json:"workouts"`
		Total    int            `json:"total"`
	}
	decode(t, rr, &list)
	if list.Total != 1 || len(list.Workouts) != 1 {
		t.Fatalf("list = %+v", list)
	}
	got := list.Workouts[0]
	if got.ID != b.ID || got.Meal != "pizza" || got.Goal != "BurnFat" || !got.CompletedAt.Equal(testNow) {
		t.Errorf("entry = %+v", got)
	}
	var plan workout.Plan
	if err := json.Unmarshal(got.Plan, &plan); err != nil || plan.DurationMinutes != 30 {
		t.Errorf("plan = %+v, %v", plan, err)
	}

	rr = do(t, h, http.MethodGet, "/workouts/"+b.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
}

func TestBurn_WithPlan(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	planJSON, _ := json.Marshal(workout.Recommend(workout.BuildMuscle, nil))
	rr := do(t, h, http.MethodPost, "/burn", `{"meal":"steak","plan":`+string(planJSON)+`}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var b session.Burn
	decode(t, rr, &b)
	if b.CountdownSeconds != 35*60 {
		t.Errorf("CountdownSeconds = %d", b.CountdownSeconds)
	}
}

func TestBurn_NoWorkout(t *testing.T) {
	h, store := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/burn", `{"meal":"pizza"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if n, _ := store.CountWorkouts(); n != 0 {
		t.Errorf("CountWorkouts = %d, want 0", n)
	}
}

func TestGetWorkout_NotFound(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodGet, "/workouts/nonexistent", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestListWorkouts_Paginated(t *testing.T) {
	h, store := setupAppHandler(t, testToken)

	for i := 0; i < 5; i++ {
		err := store.AppendWorkout(storage.CompletedWorkout{
			ID:          "w-" + string(rune('a'+i)),
			MealText:    "meal",
			PlanJSON:    "{}",
			CompletedAt: testNow.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendWorkout: %v", err)
		}
	}

	rr := do(t, h, http.MethodGet, "/workouts?limit=2&offset=1", "")
	var list struct {
		Workouts []WorkoutEntry `json:"workouts"`
		Total    int            `json:"total"`
	}
	decode(t, rr, &list)
	if list.Total != 5 || len(list.Workouts) != 2 || list.Workouts[0].ID != "w-b" {
		t.Errorf("list = %+v", list)
	}
}

func TestGetPlan(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	tests := []struct {
		goal  string
		label string
	}{
		{"BurnFat", "Fat Burning HIIT"},
		{"build-muscle", "Strength Training"},
		{"Zumba", "Balanced Training"},
	}
	for _, tt := range tests {
		rr := do(t, h, http.MethodGet, "/workouts/plans/"+tt.goal, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.goal, rr.Code)
		}
		var rec session.Recommendation
		decode(t, rr, &rec)
		if rec.Plan.Label != tt.label {
			t.Errorf("%s: label = %q, want %q", tt.goal, rec.Plan.Label, tt.label)
		}
	}
}

func TestListFoods(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodGet, "/foods", "")
	var foods []nutrition.Food
	decode(t, rr, &foods)
	if len(foods) != 12 {
		t.Errorf("len(foods) = %d, want 12", len(foods))
	}
}

func TestDashboard(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	do(t, h, http.MethodPost, "/onboard", `{"name":"Ada","dailyCalorieGoal":2000}`)
	do(t, h, http.MethodPost, "/meals", `{"meal":"bread"}`)

	rr := do(t, h, http.MethodGet, "/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var d session.Dashboard
	decode(t, rr, &d)
	if d.Greeting != "Good afternoon, Ada" {
		t.Errorf("Greeting = %q", d.Greeting)
	}
	if d.DailyIntake != 265 || d.Progress.Percent != 13 || d.Progress.Remaining != 1735 {
		t.Errorf("dashboard = %+v", d)
	}
}

func TestDarkModeAndIntakeReset(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	do(t, h, http.MethodPost, "/meals", `{"meal":"apple"}`)

	rr := do(t, h, http.MethodPut, "/settings/dark-mode", `{"enabled":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("dark mode status = %d", rr.Code)
	}
	rr = do(t, h, http.MethodPost, "/intake/reset", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/profile", "")
	var body StateView
	decode(t, rr, &body)
	if !body.DarkMode || body.DailyIntake != 0 {
		t.Errorf("state = %+v", body)
	}
	if body.Profile.TotalMealsLogged != 1 {
		t.Errorf("intake reset touched the profile: %+v", body.Profile)
	}
}
