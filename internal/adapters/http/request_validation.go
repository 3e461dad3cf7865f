package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"

	"github.com/kirillkom/beready-legal-assistant/internal/adapters/http/openapi"
)

const maxRequestBodyBytes = 1 << 20

// requestValidator checks request headers and bodies against the embedded OpenAPI document.
type requestValidator struct {
	doc *openapi3.T
}

func newRequestValidator() (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapi.Spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}
	return &requestValidator{doc: doc}, nil
}

func (v *requestValidator) route(r *http.Request) *routers.Route {
	pathItem := v.doc.Paths.Find(r.URL.Path)
	if pathItem == nil {
		return nil
	}
	operation := pathItem.GetOperation(r.Method)
	if operation == nil {
		return nil
	}
	return &routers.Route{
		Spec:      v.doc,
		Path:      r.URL.Path,
		PathItem:  pathItem,
		Method:    r.Method,
		Operation: operation,
	}
}

// middleware rejects requests that break the contract before they reach a handler.
// Paths the document does not describe pass through untouched.
func (v *requestValidator) middleware(next http.Handler, onReject func(reason string)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := v.route(r)
		if route == nil {
			next.ServeHTTP(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
		input := &openapi3filter.RequestValidationInput{
			Request: r,
			Route:   route,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			if onReject != nil {
				onReject("invalid_request")
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "invalid_request",
				Message: invalidRequestMessage(route.Operation.OperationID),
				Details: []string{validationDetail(err)},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func invalidRequestMessage(operationID string) string {
	switch operationID {
	case "AskQuestion":
		return "Question is required and must be a non-empty string."
	case "SubmitFeedback":
		return "eventId and a rating of \"up\" or \"down\" are required."
	default:
		return "The request does not match the API contract."
	}
}

func validationDetail(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if path := schemaErr.JSONPointer(); len(path) > 0 {
			return strings.Join(path, ".") + ": " + schemaErr.Reason
		}
		return schemaErr.Reason
	}
	var requestErr *openapi3filter.RequestError
	if errors.As(err, &requestErr) && requestErr.Reason != "" {
		return requestErr.Reason
	}
	return "request does not match the API contract"
}
