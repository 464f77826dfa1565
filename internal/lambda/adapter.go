// Package lambda serves the HTTP API from AWS Lambda behind an API Gateway
// proxy integration.
package lambda

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

const malformedRequestBody = `{"error":{"code":"INVALID_INPUT","message":"malformed request"}}`

// Adapter converts API Gateway proxy events into requests for an http.Handler.
type Adapter struct {
	proxy *httpadapter.HandlerAdapter
}

// NewAdapter creates an Adapter serving handler. A non-empty basePath is
// removed from event paths before routing, for custom domains mapped under
// a base path.
func NewAdapter(handler http.Handler, basePath string) *Adapter {
	proxy := httpadapter.New(gatewayRequestID(handler))
	proxy.StripBasePath(basePath)
	return &Adapter{proxy: proxy}
}

// Handle is the Lambda entry point.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp, err := a.proxy.ProxyWithContext(ctx, event)
	if err != nil {
		// The router always writes a status, so a proxy error means the
		// event itself could not be turned into a request.
		return events.APIGatewayProxyResponse{
			StatusCode:        http.StatusBadRequest,
			MultiValueHeaders: map[string][]string{"Content-Type": {"application/json"}},
			Body:              malformedRequestBody,
		}, nil
	}
	return resp, nil
}

// gatewayRequestID uses the API Gateway request ID as X-Request-ID when the
// caller did not send one.
func gatewayRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") == "" {
			if rc, ok := core.GetAPIGatewayContextFromContext(r.Context()); ok && rc.RequestID != "" {
				r.Header.Set("X-Request-ID", rc.RequestID)
			}
		}
		next.ServeHTTP(w, r)
	})
}
