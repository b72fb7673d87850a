package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	domain "github.com/example/todo-app/domain/task"
)

// Activity window sizes.
const (
	recentActivityWindow = 30 * 24 * time.Hour
	recentActivityLimit  = 10
)

// ErrInvalidView is returned for an unknown dashboard view.
var ErrInvalidView = errors.New("invalid view: must be today, upcoming or overdue")

func statsKey(userID string, version int64, loc *time.Location) string {
	return fmt.Sprintf("stats:%s:v%d:%s", userID, version, loc.String())
}

func statsVersionKey(userID string) string {
	return "stats-version:" + userID
}

// Statistics aggregates the user's live tasks. Results are cached per user and
// time zone when a cache is configured; every mutation drops them.
func (s *TaskService) Statistics(ctx context.Context, userID, timeZone string) (domain.Statistics, error) {
	loc := loadLocation(timeZone)
	load := func(context.Context) (any, error) {
		tasks, err := s.repo.ListTasks(userID)
		if err != nil {
			return nil, err
		}
		return domain.Aggregate(tasks, s.now().In(loc)), nil
	}

	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return domain.Statistics{}, err
		}
		return v.(domain.Statistics), nil
	}

	// The version is read before loading: a load that races an invalidation
	// writes under the old version, which no later read asks for.
	version, err := s.cache.Version(ctx, statsVersionKey(userID))
	if err != nil {
		log.Printf("[task] Warning: statistics cache unavailable for %s: %v", userID, err)
		v, err := load(ctx)
		if err != nil {
			return domain.Statistics{}, err
		}
		return v.(domain.Statistics), nil
	}

	var stats domain.Statistics
	if _, err := s.cache.GetOrLoad(ctx, statsKey(userID, version, loc), &stats, load); err != nil {
		return domain.Statistics{}, err
	}
	return stats, nil
}

// DashboardTasks returns the user's pending tasks in one due-date view, soonest first.
func (s *TaskService) DashboardTasks(_ context.Context, userID, timeZone, view string) ([]domain.Task, error) {
	v := domain.DueView(view)
	switch v {
	case domain.ViewToday, domain.ViewUpcoming, domain.ViewOverdue:
	default:
		return nil, ErrInvalidView
	}

	tasks, err := s.repo.ListTasks(userID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(loadLocation(timeZone))
	selected := make([]domain.Task, 0)
	for _, t := range tasks {
		if v.InView(t, now) {
			selected = append(selected, t)
		}
	}
	return domain.SortTasks(selected, domain.Sort{Field: domain.SortByDueDate, Direction: domain.Asc}), nil
}

// Activity summarizes what the user created and completed recently.
func (s *TaskService) Activity(_ context.Context, userID string) (*ActivityResponse, error) {
	tasks, err := s.repo.ListTasks(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	recentSince := now.Add(-recentActivityWindow)

	resp := &ActivityResponse{}
	recent := make([]domain.Task, 0)
	for _, t := range tasks {
		if t.CreatedAt.After(weekAgo) {
			resp.CreatedThisWeek++
		}
		if t.CompletedAt != nil && t.CompletedAt.After(weekAgo) {
			resp.CompletedThisWeek++
		}
		if t.UpdatedAt.After(recentSince) {
			recent = append(recent, t)
		}
	}

	recent = domain.SortTasks(recent, domain.Sort{Field: domain.SortByUpdatedAt, Direction: domain.Desc})
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}
	resp.RecentTasks = toTaskResponses(recent)
	return resp, nil
}

func (s *TaskService) invalidateStats(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Bump(ctx, statsVersionKey(userID)); err != nil {
		log.Printf("[task] Warning: failed to invalidate statistics cache for %s: %v", userID, err)
		return
	}
	if err := s.cache.DeletePattern(ctx, "stats:"+userID+":*"); err != nil {
		log.Printf("[task] Warning: failed to drop old statistics for %s: %v", userID, err)
	}
}
