package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gate-access-service/internal/dedup"
	"gate-access-service/internal/domain/access"
	"gate-access-service/internal/plate"
	"gate-access-service/internal/repository"
	"gate-access-service/internal/vision"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// GateTrigger requests physical barrier actuation. Implementations must
// bound their own latency; failures are non-fatal to the pipeline.
type GateTrigger interface {
	Open(ctx context.Context) error
}

// FeedPublisher pushes appended events to the live feed. Best effort.
type FeedPublisher interface {
	Publish(event access.AccessEvent) error
}

// Resolver classifies a canonical plate against the current whitelist.
type Resolver struct {
	store repository.Store
}

func NewResolver(store repository.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks the plate up in the whitelist at call time. A hit yields
// Authorized with the stored metadata; a miss yields Unauthorized with "-"
// placeholders. Results are never cached across calls.
func (r *Resolver) Resolve(ctx context.Context, canonical string) (access.Status, string, string, error) {
	entry, err := r.store.GetWhitelistEntry(ctx, canonical)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: whitelist lookup: %v", ErrStoreUnavailable, err)
	}
	if entry == nil {
		return access.StatusUnauthorized, "-", "-", nil
	}
	return access.StatusAuthorized, entry.VehicleType, entry.Owner, nil
}

// PipelineOptions are the decision tunables, validated at startup.
type PipelineOptions struct {
	MinPlateLength      int
	ConfidenceThreshold float64
	IoUThreshold        float64
}

func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		MinPlateLength:      plate.DefaultMinLength,
		ConfidenceThreshold: vision.DefaultConfidenceThreshold,
		IoUThreshold:        vision.DefaultIoUThreshold,
	}
}

// Pipeline turns raw detections into at most one access event per plate per
// cooldown window, plus the administrative and query operations over the
// same store. gate and feed may be nil when not configured.
type Pipeline struct {
	store    repository.Store
	tracker  *dedup.Tracker
	resolver *Resolver
	gate     GateTrigger
	feed     FeedPublisher
	opts     PipelineOptions
	log      zerolog.Logger
	now      func() time.Time
}

func NewPipeline(
	store repository.Store,
	tracker *dedup.Tracker,
	gate GateTrigger,
	feed FeedPublisher,
	opts PipelineOptions,
	log zerolog.Logger,
) *Pipeline {
	if opts.MinPlateLength <= 0 {
		opts.MinPlateLength = plate.DefaultMinLength
	}
	return &Pipeline{
		store:    store,
		tracker:  tracker,
		resolver: NewResolver(store),
		gate:     gate,
		feed:     feed,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the event-timestamp clock. Tests only.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// ProcessFrame runs the full decision pipeline over one frame of detector
// output: confidence filtering and NMS over the regions, then per surviving
// region normalization, cooldown, authorization, append and gate trigger.
// Region-level failures are contained in their RegionDecision; the only
// returned error is context cancellation.
func (p *Pipeline) ProcessFrame(ctx context.Context, det access.Detection) ([]access.RegionDecision, error) {
	regions := vision.Reduce(det.Regions, p.opts.ConfidenceThreshold, p.opts.IoUThreshold)

	decisions := make([]access.RegionDecision, 0, len(regions))
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return decisions, err
		}
		decisions = append(decisions, p.decideRegion(ctx, det, region))
	}
	return decisions, nil
}

func (p *Pipeline) decideRegion(ctx context.Context, det access.Detection, region access.Region) access.RegionDecision {
	canonical, err := plate.Normalize(region.Fragments, p.opts.MinPlateLength)
	if err != nil {
		p.log.Debug().Str("camera_id", det.CameraID).Msg("skipped empty or short reading")
		return access.RegionDecision{Outcome: access.OutcomeSkippedEmpty}
	}

	if !p.tracker.TryAdmit(canonical) {
		p.log.Debug().Str("plate", canonical).Msg("suppressed duplicate within cooldown")
		return access.RegionDecision{Plate: canonical, Outcome: access.OutcomeSuppressed}
	}

	decision, err := p.decideAdmitted(ctx, canonical, det.RawPayload)
	if err != nil {
		p.log.Error().Err(err).Str("plate", canonical).Msg("decision failed")
	}
	return access.RegionDecision(decision)
}

// Decide handles one plate string reported by a detection-side collaborator.
// The plate is canonicalized, run through the cooldown, and on admission
// classified, logged and acted on exactly like a frame-derived plate.
func (p *Pipeline) Decide(ctx context.Context, rawPlate string) (access.Decision, error) {
	canonical := plate.Canonical(rawPlate)
	if len(canonical) < p.opts.MinPlateLength {
		return access.Decision{Outcome: access.OutcomeSkippedEmpty},
			fmt.Errorf("%w: plate too short after normalization", ErrInvalidInput)
	}

	if !p.tracker.TryAdmit(canonical) {
		p.log.Debug().Str("plate", canonical).Msg("suppressed duplicate within cooldown")
		return access.Decision{Plate: canonical, Outcome: access.OutcomeSuppressed}, nil
	}

	return p.decideAdmitted(ctx, canonical, nil)
}

// decideAdmitted is the post-cooldown tail shared by every admitted plate:
// resolve, append, feed, gate. No pipeline lock is held across these calls.
func (p *Pipeline) decideAdmitted(ctx context.Context, canonical string, rawPayload map[string]interface{}) (access.Decision, error) {
	status, vehicleType, owner, err := p.resolver.Resolve(ctx, canonical)
	if err != nil {
		return access.Decision{Plate: canonical, Outcome: access.OutcomeUnknown}, err
	}

	event := &access.AccessEvent{
		Plate:       canonical,
		VehicleType: vehicleType,
		Owner:       owner,
		Status:      status,
		Timestamp:   p.now(),
		RawPayload:  rawPayload,
	}

	if err := p.store.Append(ctx, event); err != nil {
		return access.Decision{Plate: canonical, Outcome: access.OutcomeUnknown},
			fmt.Errorf("%w: append: %v", ErrStoreUnavailable, err)
	}

	p.log.Info().
		Int64("event_id", event.ID).
		Str("plate", canonical).
		Str("status", string(status)).
		Str("owner", owner).
		Msg("access event recorded")

	p.publish(*event)

	decision := access.Decision{Plate: canonical, Event: event}
	if status == access.StatusAuthorized {
		decision.Outcome = access.OutcomeAuthorized
		decision.GateError = p.triggerGate(ctx, canonical)
	} else {
		decision.Outcome = access.OutcomeUnauthorized
	}
	return decision, nil
}

// ManualOverride records a Manual event and opens the gate unconditionally,
// bypassing normalization, cooldown and authorization.
func (p *Pipeline) ManualOverride(ctx context.Context) (access.Decision, error) {
	event := &access.AccessEvent{
		Plate:       "-",
		VehicleType: "-",
		Owner:       "-",
		Status:      access.StatusManual,
		Timestamp:   p.now(),
	}

	if err := p.store.Append(ctx, event); err != nil {
		return access.Decision{Outcome: access.OutcomeUnknown},
			fmt.Errorf("%w: append: %v", ErrStoreUnavailable, err)
	}

	p.log.Info().Int64("event_id", event.ID).Msg("manual gate override recorded")
	p.publish(*event)

	return access.Decision{
		Plate:     "-",
		Outcome:   access.OutcomeAuthorized,
		Event:     event,
		GateError: p.triggerGate(ctx, "-"),
	}, nil
}

// triggerGate opens the gate and reports any failure as a string for the
// decision result. The append already happened; a gate failure never rolls
// it back or changes the decision outcome.
func (p *Pipeline) triggerGate(ctx context.Context, canonical string) string {
	if p.gate == nil {
		return ""
	}
	if err := p.gate.Open(ctx); err != nil {
		p.log.Error().Err(err).Str("plate", canonical).Msg("gate trigger failed")
		return err.Error()
	}
	return ""
}

func (p *Pipeline) publish(event access.AccessEvent) {
	if p.feed == nil {
		return
	}
	if err := p.feed.Publish(event); err != nil {
		p.log.Warn().Err(err).Int64("event_id", event.ID).Msg("feed publish failed")
	}
}

// RecentEvents pages through the access log, most recent first.
func (p *Pipeline) RecentEvents(ctx context.Context, limit, offset int) ([]access.AccessEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	events, err := p.store.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %v", ErrStoreUnavailable, err)
	}
	return events, nil
}

// UpsertWhitelist canonicalizes and stores one whitelist entry.
func (p *Pipeline) UpsertWhitelist(ctx context.Context, entry access.WhitelistEntry) (access.WhitelistEntry, error) {
	entry.Plate = plate.Canonical(entry.Plate)
	if entry.Plate == "" {
		return entry, fmt.Errorf("%w: plate cannot be empty after normalization", ErrInvalidInput)
	}
	if entry.VehicleType == "" || entry.Owner == "" {
		return entry, fmt.Errorf("%w: vehicle_type and owner are required", ErrInvalidInput)
	}

	if err := p.store.UpsertWhitelist(ctx, entry); err != nil {
		return entry, fmt.Errorf("%w: upsert whitelist: %v", ErrStoreUnavailable, err)
	}

	p.log.Info().Str("plate", entry.Plate).Str("owner", entry.Owner).Msg("whitelist entry upserted")
	return entry, nil
}

// DeleteWhitelist removes one whitelist entry by plate.
func (p *Pipeline) DeleteWhitelist(ctx context.Context, rawPlate string) error {
	canonical := plate.Canonical(rawPlate)
	if canonical == "" {
		return fmt.Errorf("%w: plate cannot be empty after normalization", ErrInvalidInput)
	}

	err := p.store.DeleteWhitelist(ctx, canonical)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: whitelist entry %s", ErrNotFound, canonical)
	}
	if err != nil {
		return fmt.Errorf("%w: delete whitelist: %v", ErrStoreUnavailable, err)
	}

	p.log.Info().Str("plate", canonical).Msg("whitelist entry deleted")
	return nil
}

// ListWhitelist returns the current whitelist.
func (p *Pipeline) ListWhitelist(ctx context.Context) ([]access.WhitelistEntry, error) {
	entries, err := p.store.ListWhitelist(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list whitelist: %v", ErrStoreUnavailable, err)
	}
	return entries, nil
}
