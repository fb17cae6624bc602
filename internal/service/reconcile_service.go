package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/pkg/serverutils"
	"vr-scene-sync/pkg/resource"
)

var ErrLoopStopped = errors.New("loop stopped")

type IReconcileService interface {
	Run(ctx context.Context)
	Sweep(ctx context.Context) error
}

type reconcileService struct {
	manifestURL string
	interval    time.Duration
	fetcher     resource.Fetcher
	dispatcher  Dispatcher
	sync        IContentSyncService
	logger      logger.ILogger
}

func NewReconcileService(
	manifestURL string,
	interval time.Duration,
	fetcher resource.Fetcher,
	dispatcher Dispatcher,
	sync IContentSyncService,
	log logger.ILogger,
) IReconcileService {
	return &reconcileService{
		manifestURL: manifestURL,
		interval:    interval,
		fetcher:     fetcher,
		dispatcher:  dispatcher,
		sync:        sync,
		logger:      log,
	}
}

// Run sweeps immediately and then on every interval until ctx is done.
func (r *reconcileService) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Sweep(ctx); err != nil {
			if errors.Is(err, ErrLoopStopped) || ctx.Err() != nil {
				return
			}
			r.logger.Warn("RECONCILE", "Sweep failed", map[string]interface{}{"url": r.manifestURL, "error": err.Error()})
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep records the event sequence, downloads the manifest and hands it to
// the synchronizer on the loop.
func (r *reconcileService) Sweep(ctx context.Context) error {
	seqCh := make(chan uint64, 1)
	if !r.dispatcher.Dispatch(func() { seqCh <- r.sync.Seq() }) {
		return ErrLoopStopped
	}
	var startSeq uint64
	select {
	case startSeq = <-seqCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	data, err := r.fetcher.Fetch(ctx, r.manifestURL)
	if err != nil {
		return fmt.Errorf("%w: manifest: %w", ErrFetch, err)
	}

	var manifest dto.ManifestResponse
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("%w: manifest: %v", ErrDecode, err)
	}
	if err := serverutils.ValidateStruct(&manifest); err != nil {
		return fmt.Errorf("%w: manifest: %v", ErrDecode, err)
	}

	if !r.dispatcher.Dispatch(func() { r.sync.Reconcile(&manifest, startSeq) }) {
		return ErrLoopStopped
	}
	r.logger.Debug("RECONCILE", "Manifest dispatched", map[string]interface{}{
		"notes": len(manifest.Notes), "images": len(manifest.Images), "models": len(manifest.Models), "start_seq": startSeq,
	})
	return nil
}
