package graph

import (
	"context"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/sirupsen/logrus"

	"countrygraph/internal/metrics"
)

// Tracer records one metric sample and one log line per GraphQL operation.
type Tracer struct {
	Metrics *metrics.Metrics
	Log     logrus.FieldLogger
}

var (
	_ graphql.HandlerExtension    = Tracer{}
	_ graphql.ResponseInterceptor = Tracer{}
)

func (Tracer) ExtensionName() string {
	return "OperationTracer"
}

func (Tracer) Validate(graphql.ExecutableSchema) error {
	return nil
}

func (t Tracer) InterceptResponse(ctx context.Context, next graphql.ResponseHandler) *graphql.Response {
	if !graphql.HasOperationContext(ctx) {
		return next(ctx)
	}
	opCtx := graphql.GetOperationContext(ctx)
	start := opCtx.Stats.OperationStart
	if start.IsZero() {
		start = time.Now()
	}

	resp := next(ctx)
	if resp == nil {
		return nil
	}

	elapsed := time.Since(start)
	status := "ok"
	if len(resp.Errors) > 0 {
		status = "error"
	}
	t.Metrics.ObserveOperation(opCtx.OperationName, status, elapsed)

	if t.Log != nil {
		t.Log.WithFields(logrus.Fields{
			"operation": opCtx.OperationName,
			"status":    status,
			"errors":    len(resp.Errors),
			"elapsed":   elapsed,
		}).Info("graphql operation")
	}
	return resp
}
