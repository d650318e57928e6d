package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

const defaultHistoryPerPage = 20

// StatsService aggregates completed work into the dashboard distribution
// and the paginated task history.
type StatsService struct {
	taskRepo       ports.TaskRepository
	completionRepo ports.CompletionRepository
	clock          ports.Clock
	logger         *logger.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	taskRepo ports.TaskRepository,
	completionRepo ports.CompletionRepository,
	clock ports.Clock,
	logger *logger.Logger,
) *StatsService {
	return &StatsService{
		taskRepo:       taskRepo,
		completionRepo: completionRepo,
		clock:          clock,
		logger:         logger,
	}
}

// Dashboard sums completed minutes per energy level over the current week
// (Monday to Sunday) or calendar month and maps the distribution to an
// insight. Completions come from two sources: finished one-off tasks and
// the per-date completion records of repeatable templates.
func (s *StatsService) Dashboard(ctx context.Context, userID uuid.UUID, period string) (*ports.DashboardResponse, error) {
	if period != "week" && period != "month" {
		return nil, &entities.ValidationError{Field: "period", Message: "period must be 'week' or 'month'"}
	}

	today := s.clock.Today()
	var start, end entities.Date
	if period == "week" {
		// time.Weekday counts Sunday as 0; shift so Monday opens the week.
		offset := (int(today.Time.Weekday()) + 6) % 7
		start = today.AddDays(-offset)
		end = start.AddDays(6)
	} else {
		start = entities.NewDate(today.Year(), today.Month(), 1)
		end = entities.NewDate(today.Year(), today.Month()+1, 0)
	}

	windowStart := start.Time
	windowEnd := end.Time.Add(24*time.Hour - time.Nanosecond)

	completed, err := s.taskRepo.ListCompletedBetween(ctx, userID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed tasks: %w", err)
	}

	minutes := map[entities.EnergyLevel]int{}
	for _, task := range completed {
		minutes[task.EnergyLevel] += task.DurationMinutes
	}

	templates, err := s.taskRepo.ListRepeatable(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load repeatable tasks: %w", err)
	}
	templateByID := make(map[int64]*entities.Task, len(templates))
	for _, template := range templates {
		templateByID[template.ID] = template
	}

	completions, err := s.completionRepo.ListDoneInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}
	for _, completion := range completions {
		if template, ok := templateByID[completion.TaskID]; ok {
			minutes[template.EnergyLevel] += template.DurationMinutes
		}
	}

	high := minutes[entities.EnergyHigh]
	renewal := minutes[entities.EnergyRenewal]
	low := minutes[entities.EnergyLow]
	total := high + renewal + low

	var distribution entities.EnergyDistribution
	if total > 0 {
		distribution = entities.EnergyDistribution{
			HighEnergy: round1(float64(high) / float64(total) * 100),
			Renewal:    round1(float64(renewal) / float64(total) * 100),
			LowEnergy:  round1(float64(low) / float64(total) * 100),
		}
	}

	return &ports.DashboardResponse{
		Period:           period,
		DateRange:        ports.DateRange{Start: start, End: end},
		TotalMinutesDone: total,
		Distribution:     distribution,
		Insight:          entities.CalculateInsight(distribution),
	}, nil
}

// History merges finished one-off tasks with the completion records of
// repeatable templates into one list, newest completion first, filtered by
// an optional title substring and paginated.
func (s *StatsService) History(ctx context.Context, userID uuid.UUID, page, perPage int, search string) (*ports.HistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultHistoryPerPage
	}
	search = strings.TrimSpace(search)

	type entry struct {
		ports.HistoryEntry
		completedAt time.Time
	}

	var entries []entry

	completed, err := s.taskRepo.ListCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed tasks: %w", err)
	}
	for _, task := range completed {
		entries = append(entries, entry{
			HistoryEntry: ports.HistoryEntry{
				TaskID:          task.ID,
				Title:           task.Title,
				EnergyLevel:     task.EnergyLevel,
				DurationMinutes: task.DurationMinutes,
				DateScheduled:   task.DateScheduled,
				ContextTag:      task.ContextTag,
				RoleTag:         task.RoleTag,
				Description:     task.Description,
			},
			completedAt: *task.CompletedAt,
		})
	}

	templates, err := s.taskRepo.ListRepeatable(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load repeatable tasks: %w", err)
	}
	for _, template := range templates {
		completions, err := s.completionRepo.ListDoneForTask(ctx, template.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load completions: %w", err)
		}

		seenDates := map[string]bool{}
		for _, completion := range completions {
			if seenDates[completion.Date.String()] {
				continue
			}
			seenDates[completion.Date.String()] = true

			completedAt := completion.Date.Time
			if completion.CompletedAt != nil {
				completedAt = *completion.CompletedAt
			}

			entries = append(entries, entry{
				HistoryEntry: ports.HistoryEntry{
					TaskID:          template.ID,
					Title:           template.Title,
					EnergyLevel:     template.EnergyLevel,
					DurationMinutes: template.DurationMinutes,
					DateScheduled:   completion.Date,
					ContextTag:      template.ContextTag,
					RoleTag:         template.RoleTag,
					Description:     template.Description,
				},
				completedAt: completedAt,
			})
		}
	}

	if search != "" {
		needle := strings.ToLower(search)
		filtered := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Title), needle) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].completedAt.After(entries[j].completedAt)
	})

	// Duplicates can appear when a task flipped between one-off and
	// repeatable; identity is (task, occurrence date, completion instant).
	seen := map[string]bool{}
	unique := entries[:0]
	for _, e := range entries {
		key := fmt.Sprintf("%d_%s_%d", e.TaskID, e.DateScheduled, e.completedAt.UnixNano())
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, e)
	}
	entries = unique

	totalItems := len(entries)
	totalPages := (totalItems + perPage - 1) / perPage

	startIdx := (page - 1) * perPage
	if startIdx > totalItems {
		startIdx = totalItems
	}
	endIdx := startIdx + perPage
	if endIdx > totalItems {
		endIdx = totalItems
	}

	pageEntries := make([]ports.HistoryEntry, 0, endIdx-startIdx)
	for _, e := range entries[startIdx:endIdx] {
		item := e.HistoryEntry
		item.CompletedAt = e.completedAt.Format(time.RFC3339)
		pageEntries = append(pageEntries, item)
	}

	var searchTerm *string
	if search != "" {
		searchTerm = &search
	}

	return &ports.HistoryResponse{
		Tasks: pageEntries,
		Pagination: ports.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: totalItems,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
		SearchTerm: searchTerm,
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
