package graph

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/99designs/gqlgen/graphql"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"countrygraph/internal/providers/worldbank"
)

// Error codes reported under extensions.code.
const (
	CodeCountryNotFound  = "COUNTRY_NOT_FOUND"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeUpstreamPayload  = "UPSTREAM_PAYLOAD"
	CodeCancelled        = "CANCELLED"
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"
	CodeInternal         = "INTERNAL"
)

// ErrorPresenter tags resolver errors with an extension code and logs them.
// Errors produced by the GraphQL layer itself, such as validation failures,
// pass through unchanged.
func ErrorPresenter(log logrus.FieldLogger) graphql.ErrorPresenterFunc {
	return func(ctx context.Context, err error) *gqlerror.Error {
		gqlErr := graphql.DefaultErrorPresenter(ctx, err)
		cause := gqlErr.Unwrap()
		if cause == nil {
			return gqlErr
		}

		extensions := classify(cause)
		if gqlErr.Extensions == nil {
			gqlErr.Extensions = make(map[string]interface{}, len(extensions))
		}
		for key, value := range extensions {
			gqlErr.Extensions[key] = value
		}

		entry := log.WithFields(logrus.Fields{
			"path": gqlErr.Path.String(),
			"code": extensions["code"],
		})
		if extensions["code"] == CodeInternal {
			entry.WithError(cause).Error("graphql field failed")
		} else {
			entry.WithError(cause).Warn("graphql field failed")
		}
		return gqlErr
	}
}

func classify(err error) map[string]interface{} {
	var apiErr *worldbank.APIError
	switch {
	case errors.Is(err, worldbank.ErrCountryNotFound):
		return map[string]interface{}{"code": CodeCountryNotFound}
	case errors.As(err, &apiErr):
		ext := map[string]interface{}{"code": CodeUpstreamError}
		if apiErr.StatusCode != 0 {
			ext["status"] = apiErr.StatusCode
		}
		return ext
	case errors.Is(err, worldbank.ErrUnexpectedPayload):
		return map[string]interface{}{"code": CodeUpstreamPayload}
	case errors.Is(err, context.Canceled):
		return map[string]interface{}{"code": CodeCancelled}
	case errors.Is(err, context.DeadlineExceeded):
		return map[string]interface{}{"code": CodeDeadlineExceeded}
	default:
		return map[string]interface{}{"code": CodeInternal}
	}
}

// RecoverFunc logs a resolver panic with its stack and hides the panic value
// from the client.
func RecoverFunc(log logrus.FieldLogger) graphql.RecoverFunc {
	return func(ctx context.Context, rec interface{}) error {
		log.WithFields(logrus.Fields{
			"panic": rec,
			"stack": string(debug.Stack()),
		}).Error("graphql resolver panic")
		return &gqlerror.Error{
			Message:    "internal system error",
			Extensions: map[string]interface{}{"code": CodeInternal},
		}
	}
}
