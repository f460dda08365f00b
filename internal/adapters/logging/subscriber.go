package logging

import (
	"context"

	"github.com/bylapidist/dtifx/internal/core/usecases"
)

var _ usecases.EventSubscriber = (*StageLogger)(nil)

// StageLogger logs every runtime lifecycle event at "info", except
// "stage:error" which logs at "error", per §4.7.
type StageLogger struct {
	logger usecases.Logger
}

// NewStageLogger wraps a Logger as an EventSubscriber.
func NewStageLogger(logger usecases.Logger) *StageLogger {
	return &StageLogger{logger: logger}
}

func (s *StageLogger) OnStageEvent(ctx context.Context, evt usecases.StageEvent) error {
	fields := []any{"stage", evt.Stage, "type", evt.Type}
	for k, v := range evt.Attrs {
		fields = append(fields, k, v)
	}
	if evt.Type == "stage:error" {
		if evt.Err != nil {
			fields = append(fields, "error", evt.Err.Error())
		}
		s.logger.Error("stage failed", fields...)
		return nil
	}
	s.logger.Info("stage event", fields...)
	return nil
}
