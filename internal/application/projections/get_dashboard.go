package projections

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"backoffice/internal/adapters/storage/audit"
	domainAudit "backoffice/internal/domain/audit"
	"backoffice/internal/domain/record"
	"backoffice/internal/domain/session"
)

// dashboardConcurrency caps simultaneous count requests.
const dashboardConcurrency = 4

// DefaultRecentLimit is how many audit events the dashboard shows.
const DefaultRecentLimit = 10

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	User        session.User
	Entities    []record.Definition
	RecentLimit int
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	Counter    Counter
	AuditStore AuditStore // optional: nil skips recent activity
	// Describe turns a count failure into the tile message.
	Describe func(error) string
	Logger   *zap.Logger
}

// DashboardTile is one entity summary on the dashboard.
type DashboardTile struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
	Failure string `json:"failure,omitempty"`
}

// DashboardResult carries the output of the dashboard projection.
type DashboardResult struct {
	Greeting string              `json:"greeting"`
	Tiles    []DashboardTile     `json:"tiles"`
	Recent   []domainAudit.Event `json:"recent,omitempty"`
}

// QueryGetDashboard counts every entity concurrently and gathers recent activity.
// Admins see everyone's activity; other operators see their own.
// PRE: deps.Counter is non-nil
// POST: one tile per entity in query order; a failed count sets the tile's
// Failure and never fails the projection
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps, now time.Time) (DashboardResult, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	describe := deps.Describe
	if describe == nil {
		describe = func(err error) string { return err.Error() }
	}

	result := DashboardResult{
		Greeting: greeting(now, query.User),
		Tiles:    make([]DashboardTile, len(query.Entities)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardConcurrency)
	for i, def := range query.Entities {
		result.Tiles[i] = DashboardTile{Name: def.Name, Title: def.Title}
		g.Go(func() error {
			n, err := deps.Counter.Count(gctx, def.Resource)
			if err != nil {
				log.Warn("dashboard_count_failed", zap.String("entity", def.Name), zap.Error(err))
				result.Tiles[i].Failure = describe(err)
				return nil
			}
			result.Tiles[i].Count = n
			return nil
		})
	}

	if deps.AuditStore != nil {
		limit := query.RecentLimit
		if limit <= 0 {
			limit = DefaultRecentLimit
		}
		g.Go(func() error {
			filter := audit.Filter{}
			if query.User.Role != session.RoleAdmin {
				email := query.User.Email
				filter.ActorEmail = &email
			}
			events, err := deps.AuditStore.List(gctx, filter, limit)
			if err != nil {
				return err
			}
			result.Recent = events
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return DashboardResult{}, err
	}
	return result, nil
}

func greeting(now time.Time, u session.User) string {
	part := "Good evening"
	switch h := now.Hour(); {
	case h < 12:
		part = "Good morning"
	case h < 18:
		part = "Good afternoon"
	}
	if name := u.DisplayName(); name != "" {
		return part + ", " + name
	}
	return part
}
