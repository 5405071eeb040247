package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// validator rejects requests that do not match their OpenAPI operation.
// Requests without a matching operation pass through untouched.
func validator(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}
	opts := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				if !errors.Is(err, routers.ErrPathNotFound) && !errors.Is(err, routers.ErrMethodNotAllowed) {
					logger.Debug("openapi route lookup failed", "path", r.URL.Path, "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Debug("request rejected", "operation", route.Operation.OperationID, "err", err)
				writeError(w, http.StatusBadRequest, validationMessage(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// validationMessage trims kin-openapi's error down to the first reason.
func validationMessage(err error) error {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Errorf("invalid parameter %q: %s", reqErr.Parameter.Name, reasonOf(reqErr))
		}
		if reqErr.RequestBody != nil {
			return fmt.Errorf("invalid request body: %s", reasonOf(reqErr))
		}
	}
	return err
}

func reasonOf(e *openapi3filter.RequestError) string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}

// bindPath decodes a chi URL parameter with OpenAPI simple style.
func bindPath(r *http.Request, name string, dest any) error {
	return runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	if err := bindPath(r, "id", &id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return id, true
}

// hideParam reads ?hide=variables,output. ok is false when the parameter is absent.
func hideParam(r *http.Request) (hide []string, ok bool) {
	q := r.URL.Query()
	if _, present := q["hide"]; !present {
		return nil, false
	}
	if err := runtime.BindQueryParameter("form", false, false, "hide", q, &hide); err != nil {
		return nil, false
	}
	return hide, true
}
