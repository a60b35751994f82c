// Command stresstest drives a running liftlog server with concurrent
// simulated users: it signs them in, backfills workout history through the
// real HTML forms, and then runs a burst of log-and-complete scenarios.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/liftlog/internal/e2etest"
	"github.com/myrjola/liftlog/internal/logging"
	"github.com/myrjola/liftlog/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	smokeTestTimeout        = 10 * time.Second
	signInTimeout           = 30 * time.Second
	scenarioTimeout         = 30 * time.Second
	historyTimeout          = 5 * time.Minute
	maxConcurrentSignIns    = 10
	maxConcurrentOperations = 20
	numUsers                = 10
	historyWeeks            = 12
	daysPerWeek             = 7
	baseWeightKg            = 40.0
	weightVariationKg       = 20
	baseReps                = 8
	repsVariation           = 4
	setsPerWorkout          = 3
	successRateThreshold    = 95.0
	expectedArgsCount       = 2
)

// simulatedUser holds a client with a signed-in session.
type simulatedUser struct {
	client *e2etest.Client
	email  string
}

// smokeTest checks the basic sign-in round trip before any load is applied.
func smokeTest(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), smokeTestTimeout)
	defer cancel()

	if _, err := client.SignIn(ctx, "smoke@example.com"); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if _, err := client.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if _, err := client.SignIn(ctx, "smoke@example.com"); err != nil {
		return fmt.Errorf("sign in again: %w", err)
	}
	return nil
}

// signInUser creates a fresh client and session for one simulated user.
func signInUser(ctx context.Context, url string, userIndex int, logger *slog.Logger) (*simulatedUser, error) {
	// Each user needs their own cookie jar.
	client, err := e2etest.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("creating client for user %d: %w", userIndex, err)
	}

	email := fmt.Sprintf("load-%d@example.com", userIndex)
	if _, err = client.SignIn(ctx, email); err != nil {
		return nil, fmt.Errorf("signing in user %d: %w", userIndex, err)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "user signed in", slog.Int("user_index", userIndex))

	return &simulatedUser{client: client, email: email}, nil
}

// setupUsers signs in the requested number of users with bounded concurrency.
func setupUsers(ctx context.Context, url string, count int, logger *slog.Logger) ([]*simulatedUser, error) {
	logger.LogAttrs(ctx, slog.LevelInfo, "starting user setup", slog.Int("num_users", count))

	var (
		users   = make([]*simulatedUser, 0, count)
		usersMu sync.Mutex
		wg      sync.WaitGroup
		errCh   = make(chan error, count)
	)

	semaphore := make(chan struct{}, maxConcurrentSignIns)

	for i := range count {
		wg.Add(1)
		go func(userIndex int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			userCtx, cancel := context.WithTimeout(ctx, signInTimeout)
			defer cancel()

			user, err := signInUser(userCtx, url, userIndex, logger)
			if err != nil {
				errCh <- fmt.Errorf("user %d: %w", userIndex, err)
				return
			}

			usersMu.Lock()
			users = append(users, user)
			usersMu.Unlock()
		}(i)
	}

	wg.Wait()
	close(errCh)

	failures := make([]error, 0, count)
	for err := range errCh {
		failures = append(failures, err)
	}
	if len(failures) > 0 {
		logger.LogAttrs(ctx, slog.LevelError, "some sign-ins failed",
			slog.Int("failed_count", len(failures)),
			slog.Int("successful_count", len(users)))
		return users, fmt.Errorf("sign-in failures: %w", failures[0])
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "all users signed in", slog.Int("total_users", len(users)))
	return users, nil
}

// pickExerciseOption returns the value of the nth option in the log page's
// exercise picker, wrapping around the catalog.
func pickExerciseOption(doc *goquery.Document, n int) (string, error) {
	options := doc.Find("select#exercise-select option")
	if options.Length() == 0 {
		return "", errors.New("no exercises in the picker")
	}
	value, exists := options.Eq(n % options.Length()).Attr("value")
	if !exists {
		return "", errors.New("exercise option has no value")
	}
	return value, nil
}

// logWorkout logs a few sets on the given date through the HTML forms and
// completes the session.
func logWorkout(ctx context.Context, client *e2etest.Client, dateStr string, seed int) error {
	logPath := "/log/" + dateStr
	doc, err := client.GetDoc(ctx, logPath)
	if err != nil {
		return fmt.Errorf("get log page %s: %w", dateStr, err)
	}

	// The session may already be completed from an earlier run.
	if doc.Find("form[action='" + logPath + "/complete']").Length() == 0 {
		return nil
	}

	exerciseID, err := pickExerciseOption(doc, seed)
	if err != nil {
		return fmt.Errorf("pick exercise for %s: %w", dateStr, err)
	}

	for set := range setsPerWorkout {
		reps := baseReps + (seed+set)%repsVariation
		weight := baseWeightKg + float64((seed+set)%weightVariationKg)

		if set == 0 {
			// The first set goes through the picker form.
			doc, err = client.SubmitForm(ctx, doc, logPath+"/sets", map[string]string{
				"Exercise": exerciseID,
				"Reps":     strconv.Itoa(reps),
				"Weight":   fmt.Sprintf("%.1f", weight),
			})
			if err != nil {
				return fmt.Errorf("log first set on %s: %w", dateStr, err)
			}
			continue
		}

		// Follow-up sets use the per-exercise form rendered after the first.
		action := fmt.Sprintf("%s/exercises/%s/sets/%d", logPath, exerciseID, set)
		if doc, err = client.SubmitForm(ctx, doc, action, map[string]string{
			"Reps":   strconv.Itoa(reps),
			"Weight": fmt.Sprintf("%.1f", weight),
		}); err != nil {
			return fmt.Errorf("log set %d on %s: %w", set, dateStr, err)
		}
	}

	if _, err = client.SubmitForm(ctx, doc, logPath+"/complete", nil); err != nil {
		return fmt.Errorf("complete workout on %s: %w", dateStr, err)
	}

	return nil
}

// generateWorkoutHistory backfills weekly workouts so the progress and streak
// pages have data to chew on.
func generateWorkoutHistory(ctx context.Context, user *simulatedUser, logger *slog.Logger) error {
	now := time.Now()
	start := now.AddDate(0, 0, -historyWeeks*daysPerWeek)

	for week := range historyWeeks {
		workoutDate := start.AddDate(0, 0, week*daysPerWeek)
		if workoutDate.After(now) {
			continue
		}
		dateStr := workoutDate.Format(time.DateOnly)

		if err := logWorkout(ctx, user.client, dateStr, week); err != nil {
			logger.LogAttrs(ctx, slog.LevelWarn, "failed to generate workout",
				slog.String("email", user.email),
				slog.String("date", dateStr),
				slog.Any("error", err))
			continue
		}

		logger.LogAttrs(ctx, slog.LevelDebug, "generated workout",
			slog.String("email", user.email),
			slog.String("date", dateStr))
	}

	return nil
}

// generateHistoryForUsers backfills history for all users concurrently.
func generateHistoryForUsers(ctx context.Context, users []*simulatedUser, logger *slog.Logger) error {
	var (
		wg    sync.WaitGroup
		errCh = make(chan error, len(users))
	)

	semaphore := make(chan struct{}, maxConcurrentSignIns)

	for _, user := range users {
		wg.Add(1)
		go func(u *simulatedUser) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			historyCtx, cancel := context.WithTimeout(ctx, historyTimeout)
			defer cancel()

			if err := generateWorkoutHistory(historyCtx, u, logger); err != nil {
				errCh <- fmt.Errorf("user %s: %w", u.email, err)
			}
		}(user)
	}

	wg.Wait()
	close(errCh)

	failures := make([]error, 0, len(users))
	for err := range errCh {
		failures = append(failures, err)
	}
	if len(failures) > 0 {
		logger.LogAttrs(ctx, slog.LevelError, "some history generations failed",
			slog.Int("failed_count", len(failures)),
			slog.Int("successful_count", len(users)-len(failures)))
		return fmt.Errorf("history generation failures: %w", failures[0])
	}

	return nil
}

// workoutScenario is one user's hot path: log today's workout, complete it,
// and browse the progress pages.
func workoutScenario(ctx context.Context, user *simulatedUser, scenarioIndex int, logger *slog.Logger) error {
	client := user.client
	today := time.Now().Format(time.DateOnly)

	if err := logWorkout(ctx, client, today, scenarioIndex); err != nil {
		return err
	}

	// Browsing progress right after a workout is the common follow-up.
	if _, err := client.GetDoc(ctx, "/progress"); err != nil {
		return fmt.Errorf("get progress page: %w", err)
	}
	if _, err := client.GetDoc(ctx, "/"); err != nil {
		return fmt.Errorf("get front page: %w", err)
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "workout scenario completed", slog.String("email", user.email))
	return nil
}

// runLoadTest fires the scenarios with bounded concurrency and reports the
// success rate.
func runLoadTest(ctx context.Context, users []*simulatedUser, logger *slog.Logger) error {
	userCount := len(users)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting load test", slog.Int("num_users", userCount))

	var successCount, failureCount int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)

	for i, user := range users {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()

			if err := workoutScenario(scenarioCtx, user, i, logger); err != nil {
				atomic.AddInt64(&failureCount, 1)
				// Individual failures are logged but must not stop the run.
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "scenario failed",
					slog.String("email", user.email),
					slog.Any("error", err))
				return nil
			}

			atomic.AddInt64(&successCount, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount) / float64(userCount) * 100

	logger.LogAttrs(ctx, slog.LevelInfo, "load test completed",
		slog.Int64("successful", successCount),
		slog.Int64("failed", failureCount),
		slog.Float64("success_rate", successRate))

	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}

	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)

	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))

	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client, err := e2etest.NewClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "running smoke test first")
	if err = smokeTest(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke test failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "smoke test passed")

	setupStart := time.Now()
	users, err := setupUsers(ctx, url, numUsers, logger)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to set up users", slog.Any("error", err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "user setup completed",
		slog.Duration("setup_duration", time.Since(setupStart)),
		slog.Int("signed_in_users", len(users)))

	historyStart := time.Now()
	logger.LogAttrs(ctx, slog.LevelInfo, "starting workout history generation",
		slog.Int("num_users", len(users)),
		slog.Int("weeks_per_user", historyWeeks))
	if err = generateHistoryForUsers(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "some history generation failed, continuing with load test",
			slog.Any("error", err))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "workout history generation completed",
		slog.Duration("history_duration", time.Since(historyStart)))

	loadTestStart := time.Now()
	if err = runLoadTest(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "load test completed successfully",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)),
		slog.Int("users_tested", len(users)))
}
