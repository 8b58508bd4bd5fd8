package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	logger := log.With().Str("traceId", id).Logger()
	return logger.WithContext(ctx)
}

// InjectComponent tags every log line written through ctx with the component name.
func InjectComponent(ctx context.Context, component string) context.Context {
	logger := log.Ctx(ctx).With().Str("component", component).Logger()
	return logger.WithContext(ctx)
}
