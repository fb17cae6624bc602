package service

import (
	"context"
	"errors"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/gesture"
	"vr-scene-sync/internal/interaction"
	"vr-scene-sync/internal/mapper"
	"vr-scene-sync/internal/session"
	"vr-scene-sync/internal/store"
)

var ErrEntityNotFound = errors.New("entity not found")

// LoopRunner runs read closures on the loop that owns the scene.
type LoopRunner interface {
	Call(ctx context.Context, fn func()) error
	Context() session.Context
	Stats() dto.LoopStatsResponse
}

type ISceneQueryService interface {
	ListEntities(ctx context.Context) ([]*dto.EntityResponse, error)
	GetEntity(ctx context.Context, id string) (*dto.EntityResponse, error)
	Session(ctx context.Context) (*dto.SessionResponse, error)
	Interactables(ctx context.Context) ([]*dto.InteractableResponse, error)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}

type sceneQueryService struct {
	runner   LoopRunner
	store    store.IEntityStore
	registry *interaction.Registry
	gestures *gesture.Engine
	haptics  *gesture.Haptics
	sync     IContentSyncService
	mapper   *mapper.SceneMapper
}

func NewSceneQueryService(
	runner LoopRunner,
	entities store.IEntityStore,
	registry *interaction.Registry,
	gestures *gesture.Engine,
	haptics *gesture.Haptics,
	sync IContentSyncService,
) ISceneQueryService {
	return &sceneQueryService{
		runner:   runner,
		store:    entities,
		registry: registry,
		gestures: gestures,
		haptics:  haptics,
		sync:     sync,
		mapper:   mapper.NewSceneMapper(),
	}
}

func (s *sceneQueryService) ListEntities(ctx context.Context) ([]*dto.EntityResponse, error) {
	var res []*dto.EntityResponse
	err := s.runner.Call(ctx, func() {
		ids := s.store.IDs()
		res = make([]*dto.EntityResponse, 0, len(ids))
		for _, id := range ids {
			if n, ok := s.store.Node(id); ok {
				res = append(res, s.mapper.ToEntityResponse(n))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *sceneQueryService) GetEntity(ctx context.Context, id string) (*dto.EntityResponse, error) {
	var res *dto.EntityResponse
	err := s.runner.Call(ctx, func() {
		if n, ok := s.store.Node(id); ok {
			res = s.mapper.ToEntityResponse(n)
		}
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrEntityNotFound
	}
	return res, nil
}

func (s *sceneQueryService) Session(ctx context.Context) (*dto.SessionResponse, error) {
	var res *dto.SessionResponse
	err := s.runner.Call(ctx, func() {
		res = s.mapper.ToSessionResponse(s.runner.Context(), s.gestures.Gripped())
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *sceneQueryService) Interactables(ctx context.Context) ([]*dto.InteractableResponse, error) {
	var res []*dto.InteractableResponse
	err := s.runner.Call(ctx, func() {
		res = s.mapper.ToInteractableResponses(s.registry.Snapshot())
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *sceneQueryService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	loopStats := s.runner.Stats()
	err := s.runner.Call(ctx, func() {
		loopStats.HapticsSent = s.haptics.Sent()
		loopStats.Rejected = s.registry.Rejected()
		loopStats.Grabs, loopStats.Releases = s.gestures.Counts()
	})
	if err != nil {
		return nil, err
	}
	return &dto.StatsResponse{Sync: s.sync.Stats(), Loop: loopStats}, nil
}
