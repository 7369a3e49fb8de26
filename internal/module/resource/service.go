package resource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/events"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/metrics"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/query"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/storage"
)

// Outcome is the result of an applied lifecycle transition.
type Outcome struct {
	Message  string
	Affected int64
}

// Snapshot is the full active dataset of a resource, in export column order.
type Snapshot struct {
	Columns []string
	Rows    []domain.Row
}

// Service is the resource protocol: listing, lifecycle transitions, full
// export and media browsing. Every operation requires an admin caller.
type Service interface {
	List(ctx context.Context, caller domain.Caller, resource string, q domain.ListQuery) (*domain.ListResult, error)
	Apply(ctx context.Context, caller domain.Caller, resource string, ids []string, tag string) (*Outcome, error)
	Export(ctx context.Context, caller domain.Caller, resource string) (*Snapshot, error)
	BrowseMedia(ctx context.Context, caller domain.Caller, req domain.MediaPageRequest) (*domain.MediaPage, error)
}

// Deps are the collaborators of the resource service. Nil optional
// collaborators fall back to no-op implementations.
type Deps struct {
	Registry  *Registry
	Store     Store
	Assets    storage.AssetStore
	Publisher events.Publisher
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

// service implements Service.
type service struct {
	registry  *Registry
	store     Store
	assets    storage.AssetStore
	publisher events.Publisher
	metrics   *metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. Registry and Store are required.
func NewService(deps Deps) Service {
	if deps.Registry == nil || deps.Store == nil {
		panic("resource.NewService: registry and store must not be nil")
	}
	s := &service{
		registry:  deps.Registry,
		store:     deps.Store,
		assets:    deps.Assets,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
	if s.assets == nil {
		s.assets = storage.Discard{}
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

var errAdminRequired = domain.NewAppError(domain.CodeUnauthorized, "admin access required", nil)

// List compiles q against the resource and returns the page plus the total
// of the same predicate.
func (s *service) List(ctx context.Context, caller domain.Caller, resource string, q domain.ListQuery) (*domain.ListResult, error) {
	if !caller.Admin {
		return nil, errAdminRequired
	}
	d, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}
	plan, err := query.Compile(d, q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { s.metrics.List(resource, time.Since(start)) }()

	rows, err := s.store.List(ctx, plan)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, query.Reconcile(plan))
	if err != nil {
		return nil, err
	}
	return &domain.ListResult{Rows: rows, Total: total}, nil
}

// Apply runs one lifecycle transition over a batch of ids. The whole batch
// must resolve before anything is mutated.
func (s *service) Apply(ctx context.Context, caller domain.Caller, resource string, ids []string, tag string) (*Outcome, error) {
	if !caller.Admin {
		return nil, errAdminRequired
	}
	d, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}
	t, err := domain.ParseTransition(tag)
	if err != nil {
		return nil, err
	}
	ids, err = normalizeIDs(ids)
	if err != nil {
		return nil, err
	}

	records, err := s.store.Lookup(ctx, d, ids)
	if err != nil {
		return nil, err
	}
	if len(records) != len(ids) {
		return nil, domain.NewAppError(domain.CodeNotFound, "Data not found.",
			fmt.Errorf("%d of %d ids resolved", len(records), len(ids)))
	}

	affected, err := s.mutate(ctx, d, t, records)
	if err != nil {
		s.metrics.Lifecycle(resource, string(t), metrics.OutcomeFailed, 0)
		return nil, err
	}
	s.metrics.Lifecycle(resource, string(t), metrics.OutcomeOK, affected)

	ev := domain.LifecycleEvent{
		Resource:   resource,
		Transition: t,
		IDs:        ids,
		Affected:   affected,
		Actor:      caller.Subject,
		At:         s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "lifecycle event not published",
			slog.String("resource", resource),
			slog.String("deleteType", string(t)),
			slog.Any("error", err),
		)
	}

	s.logger.InfoContext(ctx, "lifecycle applied",
		slog.String("resource", resource),
		slog.String("deleteType", string(t)),
		slog.Int("ids", len(ids)),
		slog.Int64("affected", affected),
	)
	return &Outcome{Message: "Data " + t.Verb() + ".", Affected: affected}, nil
}

func (s *service) mutate(ctx context.Context, d *query.Descriptor, t domain.Transition, records []Record) (int64, error) {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}

	switch t {
	case domain.SoftDelete:
		return s.store.SoftDelete(ctx, d, ids, s.now())
	case domain.Restore:
		return s.store.Restore(ctx, d, ids, s.now())
	default:
		for _, r := range records {
			if r.State() != domain.StateTrashed {
				return 0, domain.NewAppError(domain.CodeInvalidOperation,
					"Only trashed records can be deleted permanently.", nil)
			}
		}
		if d.AssetField != "" {
			if err := s.removeAssets(ctx, records); err != nil {
				return 0, err
			}
		}
		return s.store.Purge(ctx, d, ids)
	}
}

// removeAssets deletes external objects before their rows. It stops at the
// first failure; objects removed before it are not restored.
func (s *service) removeAssets(ctx context.Context, records []Record) error {
	for _, r := range records {
		if r.AssetKey == "" {
			continue
		}
		if err := s.assets.Remove(ctx, r.AssetKey); err != nil {
			s.logger.ErrorContext(ctx, "asset removal failed",
				slog.String("id", r.ID),
				slog.String("asset_key", r.AssetKey),
				slog.Any("error", err),
			)
			return domain.NewAppError(domain.CodeDependencyFailure, "Failed to delete media from storage.", err)
		}
	}
	return nil
}

// Export returns every active row of the resource without heavy columns.
func (s *service) Export(ctx context.Context, caller domain.Caller, resource string) (*Snapshot, error) {
	if !caller.Admin {
		return nil, errAdminRequired
	}
	d, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}
	plan := query.Snapshot(d)
	rows, err := s.store.List(ctx, plan)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NewAppError(domain.CodeNotFound, "Data not found.", nil)
	}
	s.metrics.Export(resource, len(rows))
	return &Snapshot{Columns: query.ColumnIDs(plan.Columns), Rows: rows}, nil
}

// BrowseMedia returns one page of the media grid.
func (s *service) BrowseMedia(ctx context.Context, caller domain.Caller, req domain.MediaPageRequest) (*domain.MediaPage, error) {
	if !caller.Admin {
		return nil, errAdminRequired
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	items, total, err := s.store.MediaPage(ctx, req.View, req.Page*req.Limit, req.Limit)
	if err != nil {
		return nil, err
	}
	return &domain.MediaPage{
		Items:   items,
		HasMore: int64(req.Page+1)*int64(req.Limit) < total,
	}, nil
}

// normalizeIDs trims ids and drops duplicates, keeping first-seen order.
func normalizeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, domain.NewAppError(domain.CodeInvalidOperation, "Invalid or empty id list.", nil)
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, domain.NewAppError(domain.CodeInvalidOperation, "Invalid or empty id list.", nil)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
