// Package graphql serves a graphql-go schema over HTTP.
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/nearcart/pkg/bind"
	"github.com/shashiranjanraj/nearcart/pkg/response"
	"github.com/shashiranjanraj/nearcart/pkg/validate"
)

// NewSchema builds a read-only schema around query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string         `json:"query" validate:"required"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// Handler executes POSTed queries against schema. Resolvers receive the
// request context, so identity set by middleware.Auth reaches them.
// Execution errors are reported in the result body with status 200.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		errs, err := bind.JSON(r, &req)
		if err != nil {
			response.Fail(w, http.StatusBadRequest, "INVALID_GRAPHQL_REQUEST", err.Error())
			return
		}
		if validate.HasErrors(errs) {
			response.Fail(w, http.StatusBadRequest, "INVALID_GRAPHQL_REQUEST", errs["query"])
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(result) //nolint:errcheck
	}
}
