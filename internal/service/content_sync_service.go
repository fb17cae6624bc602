package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/pkg/serverutils"
	"vr-scene-sync/internal/store"
	"vr-scene-sync/pkg/importer"
	"vr-scene-sync/pkg/resource"
)

var (
	ErrDecode      = errors.New("decode error")
	ErrFetch       = errors.New("fetch error")
	ErrImport      = errors.New("import error")
	ErrStaleResult = errors.New("stale result discarded")
)

// Dispatcher schedules fn on the loop goroutine. It reports false once the
// loop has stopped.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// ModelWriter persists model bytes under a generation guard.
type ModelWriter interface {
	Write(ctx context.Context, id string, gen uint64, data []byte) (string, error)
}

// IChangePublisher receives every store outcome. Publish must not block.
type IChangePublisher interface {
	Publish(change dto.SceneChange)
}

// IContentSyncService is owned by the loop goroutine except for Stats and Close.
type IContentSyncService interface {
	HandleEvent(raw []byte)
	Reconcile(manifest *dto.ManifestResponse, startSeq uint64)
	Seq() uint64
	Pending(id string) bool
	Stats() dto.SyncStatsResponse
	Close()
}

type pendingFetch struct {
	id        string
	kind      entity.Kind
	url       string
	gen       uint64
	source    string
	cancel    context.CancelFunc
	cancelled bool
}

type syncCounters struct {
	events  atomic.Uint64
	applied atomic.Uint64
	removed atomic.Uint64
	failed  atomic.Uint64
	stale   atomic.Uint64
	dropped atomic.Uint64
	pending atomic.Int64
}

type contentSyncService struct {
	store      store.IEntityStore
	dispatcher Dispatcher
	fetcher    resource.Fetcher
	decoder    resource.ImageDecoder
	models     ModelWriter
	importer   importer.MeshImporter
	publisher  IChangePublisher
	logger     logger.ILogger

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	pending map[string]*pendingFetch
	gen     uint64
	seq     uint64
	lastSeq map[string]uint64
	stats   syncCounters
}

func NewContentSyncService(
	entityStore store.IEntityStore,
	dispatcher Dispatcher,
	fetcher resource.Fetcher,
	decoder resource.ImageDecoder,
	models ModelWriter,
	meshImporter importer.MeshImporter,
	publisher IChangePublisher,
	log logger.ILogger,
) IContentSyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &contentSyncService{
		store:      entityStore,
		dispatcher: dispatcher,
		fetcher:    fetcher,
		decoder:    decoder,
		models:     models,
		importer:   meshImporter,
		publisher:  publisher,
		logger:     log,
		baseCtx:    ctx,
		stop:       cancel,
		pending:    make(map[string]*pendingFetch),
		lastSeq:    make(map[string]uint64),
	}
}

func (s *contentSyncService) HandleEvent(raw []byte) {
	s.stats.events.Add(1)

	msg, err := decodeEvent(raw)
	if err != nil {
		s.stats.dropped.Add(1)
		s.logger.Warn("SYNC", "Dropped event", map[string]interface{}{"error": err.Error(), "raw": truncate(raw, 256)})
		return
	}

	id := msg.Data.Id
	s.seq++
	s.lastSeq[id] = s.seq
	// any newer event for the id makes an outstanding fetch stale
	s.supersede(id)

	kind := entity.Kind(msg.Type)
	switch entity.Action(msg.Action) {
	case entity.ActionDelete:
		s.remove(id, dto.SourceEvent)
	case entity.ActionAdd:
		switch kind {
		case entity.KindNote:
			s.upsert(id, kind, entity.Payload{Text: msg.Data.Text}, dto.SourceEvent)
		case entity.KindImage, entity.KindModel:
			s.startFetch(id, kind, msg.Data.Url, dto.SourceEvent)
		}
	}
}

func decodeEvent(raw []byte) (*dto.SceneEventMessage, error) {
	var msg dto.SceneEventMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := serverutils.ValidateStruct(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if msg.Action == string(entity.ActionAdd) && msg.Type != string(entity.KindNote) && msg.Data.Url == "" {
		return nil, fmt.Errorf("%w: %s add for %s without url", ErrDecode, msg.Type, msg.Data.Id)
	}
	return &msg, nil
}

func (s *contentSyncService) supersede(id string) {
	p, ok := s.pending[id]
	if !ok {
		return
	}
	p.cancelled = true
	p.cancel()
	delete(s.pending, id)
	s.stats.pending.Add(-1)
}

func (s *contentSyncService) startFetch(id string, kind entity.Kind, url, source string) {
	s.gen++
	ctx, cancel := context.WithCancel(s.baseCtx)
	p := &pendingFetch{id: id, kind: kind, url: url, gen: s.gen, source: source, cancel: cancel}
	s.pending[id] = p
	s.stats.pending.Add(1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		payload, err := s.resolve(ctx, p)
		if !s.dispatcher.Dispatch(func() { s.complete(p, payload, err) }) {
			cancel()
		}
	}()
}

// resolve runs off the loop and must not touch loop-owned state.
func (s *contentSyncService) resolve(ctx context.Context, p *pendingFetch) (entity.Payload, error) {
	data, err := s.fetcher.Fetch(ctx, p.url)
	if err != nil {
		if ctx.Err() != nil {
			return entity.Payload{}, ErrStaleResult
		}
		return entity.Payload{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	switch p.kind {
	case entity.KindImage:
		img, err := s.decoder.Decode(data)
		if err != nil {
			return entity.Payload{}, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return entity.Payload{Image: img}, nil

	case entity.KindModel:
		path, err := s.models.Write(ctx, p.id, p.gen, data)
		if err != nil {
			if errors.Is(err, resource.ErrStaleWrite) || ctx.Err() != nil {
				return entity.Payload{}, ErrStaleResult
			}
			return entity.Payload{}, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		root, err := s.importer.Import(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return entity.Payload{}, ErrStaleResult
			}
			return entity.Payload{}, fmt.Errorf("%w: %w", ErrImport, err)
		}
		// cache files are named by digest
		root.Name = p.id
		return entity.Payload{Model: root}, nil
	}
	return entity.Payload{}, fmt.Errorf("%w: unsupported kind %s", ErrFetch, p.kind)
}

func (s *contentSyncService) complete(p *pendingFetch, payload entity.Payload, err error) {
	defer p.cancel()

	if cur, ok := s.pending[p.id]; !ok || cur != p || p.cancelled || errors.Is(err, ErrStaleResult) {
		s.stats.stale.Add(1)
		s.logger.Debug("SYNC", "Stale result discarded", map[string]interface{}{"id": p.id, "generation": p.gen})
		if ok && cur == p {
			delete(s.pending, p.id)
			s.stats.pending.Add(-1)
		}
		return
	}
	delete(s.pending, p.id)
	s.stats.pending.Add(-1)

	if err != nil {
		s.stats.failed.Add(1)
		s.logger.Error("SYNC", "Resource resolution failed", map[string]interface{}{
			"id": p.id, "kind": string(p.kind), "url": p.url, "error": err.Error(),
		})
		s.publish(dto.ChangeFailed, p.id, p.kind, p.source, err)
		return
	}
	s.upsert(p.id, p.kind, payload, p.source)
}

func (s *contentSyncService) upsert(id string, kind entity.Kind, payload entity.Payload, source string) {
	if _, err := s.store.Upsert(id, kind, payload); err != nil {
		s.stats.failed.Add(1)
		s.logger.Error("SYNC", "Upsert failed", map[string]interface{}{"id": id, "error": err.Error()})
		s.publish(dto.ChangeFailed, id, kind, source, err)
		return
	}
	s.stats.applied.Add(1)
	s.logger.Info("SYNC", "Entity applied", map[string]interface{}{"id": id, "kind": string(kind), "source": source})
	s.publish(dto.ChangeApplied, id, kind, source, nil)
}

func (s *contentSyncService) remove(id, source string) {
	prior, ok := s.store.Get(id)
	if !ok {
		return
	}
	s.store.Remove(id)
	s.stats.removed.Add(1)
	s.logger.Info("SYNC", "Entity removed", map[string]interface{}{"id": id, "source": source})
	s.publish(dto.ChangeRemoved, id, prior.Kind, source, nil)
}

func (s *contentSyncService) publish(changeType, id string, kind entity.Kind, source string, err error) {
	if s.publisher == nil {
		return
	}
	change := dto.SceneChange{
		Type:       changeType,
		Id:         id,
		Kind:       string(kind),
		Source:     source,
		OccurredAt: time.Now(),
	}
	if err != nil {
		change.Error = err.Error()
	}
	s.publisher.Publish(change)
}

// Reconcile applies a manifest snapshot taken after startSeq. Ids that saw an
// event after startSeq are left alone since the event is newer than the snapshot.
func (s *contentSyncService) Reconcile(manifest *dto.ManifestResponse, startSeq uint64) {
	if manifest == nil {
		return
	}
	newer := func(id string) bool { return s.lastSeq[id] > startSeq }
	present := make(map[string]bool)

	for _, n := range manifest.Notes {
		if n.Id == "" {
			continue
		}
		present[n.Id] = true
		if newer(n.Id) {
			continue
		}
		if cur, ok := s.store.Get(n.Id); ok && cur.SameContent(entity.KindNote, entity.Payload{Text: n.Text}) {
			continue
		}
		s.supersede(n.Id)
		s.upsert(n.Id, entity.KindNote, entity.Payload{Text: n.Text}, dto.SourceReconcile)
	}

	for _, url := range manifest.Images {
		if url == "" {
			continue
		}
		present[url] = true
		s.ensureFetched(url, entity.KindImage, url, newer(url))
	}

	for _, m := range manifest.Models {
		if m.Id == "" || m.Url == "" {
			continue
		}
		present[m.Id] = true
		s.ensureFetched(m.Id, entity.KindModel, m.Url, newer(m.Id))
	}

	for _, id := range s.store.IDs() {
		if present[id] || newer(id) {
			continue
		}
		if _, busy := s.pending[id]; busy {
			continue
		}
		s.remove(id, dto.SourceReconcile)
	}

	// later sweeps start at or after startSeq, so older marks can never be newer
	for id, seq := range s.lastSeq {
		if seq <= startSeq {
			delete(s.lastSeq, id)
		}
	}
}

func (s *contentSyncService) ensureFetched(id string, kind entity.Kind, url string, newer bool) {
	if newer {
		return
	}
	if _, ok := s.store.Get(id); ok {
		return
	}
	if _, busy := s.pending[id]; busy {
		return
	}
	s.startFetch(id, kind, url, dto.SourceReconcile)
}

func (s *contentSyncService) Seq() uint64 {
	return s.seq
}

func (s *contentSyncService) Pending(id string) bool {
	_, ok := s.pending[id]
	return ok
}

func (s *contentSyncService) Stats() dto.SyncStatsResponse {
	return dto.SyncStatsResponse{
		Events:  s.stats.events.Load(),
		Applied: s.stats.applied.Load(),
		Removed: s.stats.removed.Load(),
		Failed:  s.stats.failed.Load(),
		Stale:   s.stats.stale.Load(),
		Dropped: s.stats.dropped.Load(),
		Pending: s.stats.pending.Load(),
	}
}

// Close cancels every outstanding fetch and waits for the resolvers to return.
// Completions still dispatched after Close are discarded as stale.
func (s *contentSyncService) Close() {
	s.stop()
	s.wg.Wait()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
