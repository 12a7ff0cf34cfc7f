package camera

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/webermarci/hikrec"

	"gate-access-service/internal/domain/access"
)

// Decider is the pipeline entry point the camera source feeds.
type Decider interface {
	Decide(ctx context.Context, rawPlate string) (access.Decision, error)
}

// Source pulls plate recognitions from a Hikvision ANPR camera and submits
// each through the decision pipeline. One source runs per camera.
type Source struct {
	device        *hikrec.Device
	decider       Decider
	minConfidence int
	log           zerolog.Logger
}

func NewSource(url, username, password string, minConfidence int, decider Decider, log zerolog.Logger) *Source {
	return &Source{
		device:        hikrec.NewDevice(url, username, password),
		decider:       decider,
		minConfidence: minConfidence,
		log:           log,
	}
}

// Run consumes recognitions until ctx is cancelled. Per-recognition failures
// are logged and never stop the loop; the blocking pipeline call happens on
// this goroutine, so a slow store or gate never blocks the camera library.
func (s *Source) Run(ctx context.Context) error {
	recognitions, err := s.device.PullRecognitions()
	if err != nil {
		return err
	}

	s.log.Info().Msg("camera source started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("camera source stopped")
			return ctx.Err()
		case rec, ok := <-recognitions:
			if !ok {
				return nil
			}
			s.handle(ctx, rec)
		}
	}
}

func (s *Source) handle(ctx context.Context, rec hikrec.Recognition) {
	if rec.Confidence < s.minConfidence {
		s.log.Debug().
			Str("plate", rec.Plate).
			Int("confidence", rec.Confidence).
			Msg("recognition below confidence floor")
		return
	}

	decision, err := s.decider.Decide(ctx, rec.Plate)
	if err != nil {
		s.log.Error().Err(err).Str("plate", rec.Plate).Msg("camera decision failed")
		return
	}

	s.log.Info().
		Str("plate", decision.Plate).
		Str("outcome", string(decision.Outcome)).
		Str("direction", string(rec.Direction)).
		Msg("camera recognition decided")
}
