package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/estate-crm-api/internal/dto"
	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/repository"
)

const defaultRecordPageSize = 20

// ErrRecordNotFound indicates no change record is visible under the sequence ID.
var ErrRecordNotFound = errors.New("change record not found")

// RecordService exposes read access to the audit log.
type RecordService interface {
	List(ctx context.Context, actor Actor, req dto.ChangeRecordListRequest) (dto.ChangeRecordListResponse, error)
	Get(ctx context.Context, actor Actor, sequenceID int64) (dto.ChangeRecordResponse, error)
}

type recordService struct {
	repo      repository.ChangeRecordRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRecordService constructs the audit log query service.
func NewRecordService(repo repository.ChangeRecordRepository, validate *validator.Validate, logger zerolog.Logger) RecordService {
	return &recordService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "record_service").Logger(),
	}
}

func (s *recordService) List(ctx context.Context, actor Actor, req dto.ChangeRecordListRequest) (dto.ChangeRecordListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChangeRecordListResponse{}, err
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultRecordPageSize
	}

	filter := repository.ChangeRecordFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		TenantID:   actor.TenantID,
		EntityKind: models.EntityKind(req.EntityKind),
		Action:     models.ActionKind(req.Action),
	}
	if req.EntityID > 0 {
		filter.EntityID = &req.EntityID
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list change records")
		return dto.ChangeRecordListResponse{}, err
	}

	return dto.ChangeRecordListResponse{
		Items:      dto.NewChangeRecordResponseSlice(records),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *recordService) Get(ctx context.Context, actor Actor, sequenceID int64) (dto.ChangeRecordResponse, error) {
	record, err := s.repo.GetBySequenceID(ctx, sequenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChangeRecordResponse{}, ErrRecordNotFound
		}
		return dto.ChangeRecordResponse{}, err
	}

	if !actor.canSee(record.TenantID) {
		return dto.ChangeRecordResponse{}, ErrRecordNotFound
	}

	return dto.NewChangeRecordResponse(record), nil
}
