package service

import (
	"context"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/mapper"
	"vr-scene-sync/internal/pkg/logger"
)

type ILogService interface {
	GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error)
}

type logService struct {
	logger logger.ILogger
	mapper *mapper.SceneMapper
}

func NewLogService(log logger.ILogger) ILogService {
	return &logService{logger: log, mapper: mapper.NewSceneMapper()}
}

func (s *logService) GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	logs, err := s.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, s.mapper.ToLogListResponse(l))
	}
	return res, nil
}

func (s *logService) GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error) {
	l, err := s.logger.GetLogById(logId)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToLogDetailResponse(l), nil
}
