package ebbinghaus

import (
	"testing"
	"time"
)

func yekaterinburg(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Yekaterinburg")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return loc
}

func TestComputeNextIntradayStages(t *testing.T) {
	t.Parallel()
	loc := time.UTC

	tests := []struct {
		name      string
		createdAt time.Time
		stage     int
		wantDue   time.Time
		wantStage int
	}{
		{
			name:      "stage 0 adds twenty minutes",
			createdAt: time.Date(2026, 3, 10, 10, 0, 0, 0, loc),
			stage:     0,
			wantDue:   time.Date(2026, 3, 10, 10, 20, 0, 0, loc),
			wantStage: 1,
		},
		{
			name:      "stage 1 before evening lands today at 20:00",
			createdAt: time.Date(2026, 3, 10, 10, 0, 0, 0, loc),
			stage:     1,
			wantDue:   time.Date(2026, 3, 10, 20, 0, 0, 0, loc),
			wantStage: 2,
		},
		{
			name:      "stage 1 after evening rolls to tomorrow",
			createdAt: time.Date(2026, 3, 10, 21, 30, 0, 0, loc),
			stage:     1,
			wantDue:   time.Date(2026, 3, 11, 20, 0, 0, 0, loc),
			wantStage: 2,
		},
		{
			name:      "stage 1 exactly at 20:00 rolls to tomorrow",
			createdAt: time.Date(2026, 3, 10, 20, 0, 0, 0, loc),
			stage:     1,
			wantDue:   time.Date(2026, 3, 11, 20, 0, 0, 0, loc),
			wantStage: 2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			due, stage := ComputeNext(tt.createdAt, tt.stage, loc, nil)
			if !due.Equal(tt.wantDue) {
				t.Errorf("due = %v, want %v", due, tt.wantDue)
			}
			if stage != tt.wantStage {
				t.Errorf("stage = %d, want %d", stage, tt.wantStage)
			}
		})
	}
}

func TestComputeNextLongHorizonStages(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	createdAt := time.Date(2026, 3, 10, 15, 45, 0, 0, loc)

	tests := []struct {
		stage     int
		wantDays  int
		wantStage int
	}{
		{stage: 2, wantDays: 1, wantStage: 3},
		{stage: 3, wantDays: 3, wantStage: 4},
		{stage: 4, wantDays: 7, wantStage: 5},
		{stage: 5, wantDays: 14, wantStage: 6},
		{stage: 6, wantDays: 30, wantStage: 7},
	}

	for _, tt := range tests {
		due, stage := ComputeNext(createdAt, tt.stage, loc, nil)

		want := time.Date(2026, 3, 10+tt.wantDays, 7, 0, 0, 0, loc)
		if !due.Equal(want) {
			t.Errorf("stage %d: due = %v, want %v", tt.stage, due, want)
		}
		if stage != tt.wantStage {
			t.Errorf("stage %d: next stage = %d, want %d", tt.stage, stage, tt.wantStage)
		}
	}
}

func TestComputeNextMonthlyPhase(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	createdAt := time.Date(2026, 1, 5, 12, 0, 0, 0, loc)

	t.Run("stage 7 without last success anchors at creation", func(t *testing.T) {
		t.Parallel()
		due, stage := ComputeNext(createdAt, 7, loc, nil)

		want := time.Date(2026, 2, 4, 7, 0, 0, 0, loc)
		if !due.Equal(want) {
			t.Errorf("due = %v, want %v", due, want)
		}
		if stage != MonthlyStage {
			t.Errorf("stage = %d, want %d", stage, MonthlyStage)
		}
	})

	t.Run("stage 8 anchors at last success", func(t *testing.T) {
		t.Parallel()
		lastSuccess := time.Date(2026, 6, 1, 9, 30, 0, 0, loc)
		due, stage := ComputeNext(createdAt, 8, loc, &lastSuccess)

		want := time.Date(2026, 7, 1, 7, 0, 0, 0, loc)
		if !due.Equal(want) {
			t.Errorf("due = %v, want %v", due, want)
		}
		if stage != MonthlyStage {
			t.Errorf("stage = %d, want %d", stage, MonthlyStage)
		}
	})

	t.Run("stage beyond 8 stays clamped", func(t *testing.T) {
		t.Parallel()
		_, stage := ComputeNext(createdAt, 12, loc, nil)
		if stage != MonthlyStage {
			t.Errorf("stage = %d, want %d", stage, MonthlyStage)
		}
	})
}

// Five consecutive monthly successes must keep a stable 30-day interval;
// the stage may never climb past 8 and the interval may never shrink.
func TestComputeNextMonthlyIntervalNeverCompresses(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	createdAt := time.Date(2026, 1, 5, 12, 0, 0, 0, loc)

	stage := 7
	lastSuccess := time.Date(2026, 3, 1, 8, 0, 0, 0, loc)

	for i := 0; i < 5; i++ {
		due, nextStage := ComputeNext(createdAt, stage, loc, &lastSuccess)

		want := time.Date(
			lastSuccess.Year(), lastSuccess.Month(), lastSuccess.Day(),
			7, 0, 0, 0, loc,
		).AddDate(0, 0, 30)
		if !due.Equal(want) {
			t.Fatalf("cycle %d: due = %v, want %v", i, due, want)
		}
		if nextStage != MonthlyStage {
			t.Fatalf("cycle %d: stage = %d, want %d", i, nextStage, MonthlyStage)
		}

		stage = nextStage
		lastSuccess = due // next success happens when it comes due
	}
}

func TestComputeNextRespectsTimezone(t *testing.T) {
	t.Parallel()
	loc := yekaterinburg(t)

	// 16:30 UTC is 21:30 in Yekaterinburg (+05): past the local evening, so
	// the evening entry rolls to tomorrow local time.
	createdAt := time.Date(2026, 3, 10, 16, 30, 0, 0, time.UTC)
	due, stage := ComputeNext(createdAt, 1, loc, nil)

	want := time.Date(2026, 3, 11, 20, 0, 0, 0, loc)
	if !due.Equal(want) {
		t.Errorf("due = %v, want %v", due, want)
	}
	if stage != 2 {
		t.Errorf("stage = %d, want 2", stage)
	}
}

func TestComputeFailure(t *testing.T) {
	t.Parallel()
	loc := time.UTC

	tests := []struct {
		name      string
		failedAt  time.Time
		stage     int
		wantStage int
	}{
		{
			name:      "stage 5 rolls back to 4",
			failedAt:  time.Date(2026, 3, 10, 10, 0, 0, 0, loc),
			stage:     5,
			wantStage: 4,
		},
		{
			name:      "stage 0 is floored at 0",
			failedAt:  time.Date(2026, 3, 10, 10, 0, 0, 0, loc),
			stage:     0,
			wantStage: 0,
		},
		{
			name:      "monthly stage rolls back to 7",
			failedAt:  time.Date(2026, 3, 10, 23, 50, 0, 0, loc),
			stage:     8,
			wantStage: 7,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			due, stage := ComputeFailure(tt.failedAt, tt.stage, loc)

			// Failure always reschedules for tomorrow morning, whatever the
			// stage was.
			want := time.Date(
				tt.failedAt.Year(), tt.failedAt.Month(), tt.failedAt.Day(),
				7, 0, 0, 0, loc,
			).AddDate(0, 0, 1)
			if !due.Equal(want) {
				t.Errorf("due = %v, want %v", due, want)
			}
			if stage != tt.wantStage {
				t.Errorf("stage = %d, want %d", stage, tt.wantStage)
			}
		})
	}
}
