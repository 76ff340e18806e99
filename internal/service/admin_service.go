package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/reaper"
	"swift-ai-market/pkg/retry"
)

// Sweeper runs one inactivity sweep on demand.
type Sweeper interface {
	Sweep(ctx context.Context) (reaper.Report, error)
}

type IAdminService interface {
	ActiveSessions(ctx context.Context) (*dto.ActiveSessionsResponse, error)
	ActiveUsers(ctx context.Context) (*dto.ActiveUsersResponse, error)
	Reap(ctx context.Context) (*dto.ReapResponse, error)
	GetLogs(ctx context.Context, req *dto.LogListRequest) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, id string) (*dto.LogDetailResponse, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	counter    ActivityCounter
	sweeper    Sweeper
	logger     logger.ILogger
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	counter ActivityCounter,
	sweeper Sweeper,
	logger logger.ILogger,
) IAdminService {
	return &adminService{
		uowFactory: uowFactory,
		counter:    counter,
		sweeper:    sweeper,
		logger:     logger,
	}
}

// ActiveSessions lists active session counts per product, busiest first,
// with the product name when the product still exists.
func (s *adminService) ActiveSessions(ctx context.Context) (*dto.ActiveSessionsResponse, error) {
	counts, err := s.counter.ActiveSessionCounts(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}

	names := map[int64]*entity.Product{}
	if len(ids) > 0 {
		repo := s.uowFactory.NewUnitOfWork(ctx).ProductRepository()
		products, err := retry.Once(ctx, retry.DefaultWait, func() ([]*entity.Product, error) {
			return repo.FindByIDs(ctx, ids)
		})
		if err != nil {
			return nil, err
		}
		names = productsById(products)
	}

	res := &dto.ActiveSessionsResponse{Products: make([]*dto.ActiveSessionCount, 0, len(counts))}
	for id, count := range counts {
		row := &dto.ActiveSessionCount{ProductId: id, Count: count}
		if p, ok := names[id]; ok {
			row.ProductName = p.Name
		}
		res.Total += count
		res.Products = append(res.Products, row)
	}
	sort.Slice(res.Products, func(i, j int) bool {
		if res.Products[i].Count != res.Products[j].Count {
			return res.Products[i].Count > res.Products[j].Count
		}
		return res.Products[i].ProductId < res.Products[j].ProductId
	})
	return res, nil
}

func (s *adminService) ActiveUsers(ctx context.Context) (*dto.ActiveUsersResponse, error) {
	users, err := s.counter.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.counter.ActiveSessions(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ActiveUsersResponse{ActiveUsers: users, ActiveSessions: sessions}, nil
}

func (s *adminService) Reap(ctx context.Context) (*dto.ReapResponse, error) {
	report, err := s.sweeper.Sweep(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ReapResponse{
		Cutoff:       report.Cutoff,
		Scanned:      report.Scanned,
		Ended:        report.Ended,
		AlreadyEnded: report.AlreadyEnded,
		Failed:       report.Failed,
		DurationMs:   report.Duration.Milliseconds(),
	}, nil
}

func (s *adminService) GetLogs(ctx context.Context, req *dto.LogListRequest) ([]*dto.LogListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.logger.GetLogs(strings.ToUpper(req.Level), limit, req.Offset)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toLogListResponse(e))
	}
	return res, nil
}

func (s *adminService) GetLogDetail(ctx context.Context, id string) (*dto.LogDetailResponse, error) {
	entry, err := s.logger.GetLogById(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrLogNotFound, id)
	}
	return &dto.LogDetailResponse{
		LogListResponse: *toLogListResponse(*entry),
		Details:         entry.Details,
	}, nil
}

// logTimeLayout matches zapcore.ISO8601TimeEncoder.
const logTimeLayout = "2006-01-02T15:04:05.000Z0700"

func toLogListResponse(e logger.LogEntry) *dto.LogListResponse {
	createdAt, _ := time.Parse(logTimeLayout, e.Timestamp)
	return &dto.LogListResponse{
		Id:        e.Id,
		Level:     e.Level,
		Module:    e.Module,
		Message:   e.Message,
		CreatedAt: createdAt,
	}
}
