package main

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftlog/internal/e2etest"
	"github.com/myrjola/liftlog/internal/testhelpers"
	"github.com/myrjola/liftlog/internal/workout"
)

func Test_application_planGeneration(t *testing.T) {
	ctx := t.Context()
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	client := server.Client()
	if _, err = client.SignIn(ctx, "athlete@example.com"); err != nil {
		t.Fatalf("Failed to sign in: %v", err)
	}

	doc, err := client.GetDoc(ctx, "/plans")
	if err != nil {
		t.Fatalf("Failed to get plans page: %v", err)
	}
	if !strings.Contains(doc.Text(), "No plans yet") {
		t.Error("Expected the empty state before generating a plan")
	}

	// Without an API key the generator builds the starter plan from the
	// catalog, spread over the weekly goal's training days.
	doc, err = client.SubmitForm(ctx, doc, "/plans/generate", map[string]string{
		"Goals": "general fitness",
	})
	if err != nil {
		t.Fatalf("Failed to generate plan: %v", err)
	}

	if doc.Find("section.plan-active h2:contains('Starter Plan')").Length() != 1 {
		t.Error("Expected the generated starter plan to be active")
	}
	for _, weekday := range []string{"Monday", "Wednesday", "Friday"} {
		if doc.Find("section.plan li strong:contains('" + weekday + "')").Length() != 1 {
			t.Errorf("Expected a %s training day in the generated plan", weekday)
		}
	}

	// The front page surfaces the plan through the streak banner's schedule.
	home, err := client.GetDoc(ctx, "/")
	if err != nil {
		t.Fatalf("Failed to get front page: %v", err)
	}
	if home.Find("section.today").Length() != 1 {
		t.Error("Expected the today section on the front page")
	}

	deleteAction, exists := doc.Find("section.plan form").First().Attr("action")
	if !exists || !strings.HasSuffix(deleteAction, "/delete") {
		t.Fatalf("Expected a delete form on the active plan, got %q", deleteAction)
	}
	if doc, err = client.SubmitForm(ctx, doc, deleteAction, nil); err != nil {
		t.Fatalf("Failed to delete plan: %v", err)
	}
	if !strings.Contains(doc.Text(), "No plans yet") {
		t.Error("Expected the empty state after deleting the plan")
	}
}

func Test_parsePlanForm(t *testing.T) {
	form := url.Values{}
	form.Set("name", "Upper/Lower")
	form.Set("day_1_name", "Upper")
	form.Set("day_1_exercises", "3, 7")
	form.Set("day_1_sets", "4")
	form.Set("day_1_reps", "6")
	form.Set("day_4_name", "Lower")
	form.Set("day_4_exercises", "20")

	r := httptest.NewRequest("POST", "/plans", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := r.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}

	draft, err := parsePlanForm(r)
	if err != nil {
		t.Fatalf("parse plan form: %v", err)
	}

	fourBynSix := []workout.PlanSet{
		{RepsTarget: 6, Notes: ""}, {RepsTarget: 6, Notes: ""},
		{RepsTarget: 6, Notes: ""}, {RepsTarget: 6, Notes: ""},
	}
	defaultScheme := []workout.PlanSet{
		{RepsTarget: 8, Notes: ""}, {RepsTarget: 8, Notes: ""}, {RepsTarget: 8, Notes: ""},
	}
	want := workout.PlanDraft{
		Name: "Upper/Lower",
		Days: []workout.PlanDay{
			{
				ID:      0,
				Weekday: time.Monday,
				Name:    "Upper",
				Exercises: []workout.PlanExercise{
					{ID: 0, ExerciseID: 3, Position: 0, RestSeconds: nil, Sets: fourBynSix},
					{ID: 0, ExerciseID: 7, Position: 1, RestSeconds: nil, Sets: fourBynSix},
				},
			},
			{
				ID:      0,
				Weekday: time.Thursday,
				Name:    "Lower",
				Exercises: []workout.PlanExercise{
					{ID: 0, ExerciseID: 20, Position: 0, RestSeconds: nil, Sets: defaultScheme},
				},
			},
		},
	}
	if diff := cmp.Diff(want, draft); diff != "" {
		t.Errorf("draft mismatch (-want +got):\n%s", diff)
	}

	// An out-of-range set scheme is rejected.
	form.Set("day_1_sets", "11")
	r = httptest.NewRequest("POST", "/plans", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err = r.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if _, err = parsePlanForm(r); err == nil {
		t.Error("expected error for 11-set scheme")
	}
}
