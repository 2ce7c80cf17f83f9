// Package graph exposes a read-only GraphQL view of the catalogue:
//
//	{ books(search: "go", minPrice: 100) { id title price } }
//	{ book(id: "...") { title author ratings } }
package graph

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/pkg/response"
)

var reviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Review",
	Fields: graphql.Fields{
		"rating":  &graphql.Field{Type: graphql.Int},
		"comment": &graphql.Field{Type: graphql.String},
	},
})

var bookType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Book",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.ID,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if b, ok := p.Source.(models.Book); ok {
					return b.ID.Hex(), nil
				}
				return nil, nil
			},
		},
		"title":        &graphql.Field{Type: graphql.String},
		"author":       &graphql.Field{Type: graphql.String},
		"price":        &graphql.Field{Type: graphql.Int},
		"category":     &graphql.Field{Type: graphql.String},
		"image":        &graphql.Field{Type: graphql.String},
		"description":  &graphql.Field{Type: graphql.String},
		"availability": &graphql.Field{Type: graphql.Boolean},
		"stock":        &graphql.Field{Type: graphql.Int},
		"ratings":      &graphql.Field{Type: graphql.Float},
		"reviews":      &graphql.Field{Type: graphql.NewList(reviewType)},
	},
})

// NewSchema builds the catalogue query schema over the given service.
func NewSchema(catalog *services.CatalogService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"books": &graphql.Field{
				Type: graphql.NewList(bookType),
				Args: graphql.FieldConfigArgument{
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"minPrice": &graphql.ArgumentConfig{Type: graphql.Int},
					"maxPrice": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var filter models.BookFilter

					if v, ok := p.Args["search"].(string); ok {
						filter.Search = v
					}
					if v, ok := p.Args["category"].(string); ok {
						filter.Category = v
					}
					if v, ok := p.Args["minPrice"].(int); ok {
						min := int64(v)
						filter.MinPrice = &min
					}
					if v, ok := p.Args["maxPrice"].(int); ok {
						max := int64(v)
						filter.MaxPrice = &max
					}

					return catalog.List(p.Context, filter)
				},
			},
			"book": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					book, err := catalog.Get(p.Context, id)
					if err != nil {
						return nil, err
					}
					return *book, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler serves POST /graphql.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			OperationName:  req.OperationName,
			VariableValues: req.Variables,
			Context:        r.Context(),
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result) //nolint:errcheck
	}
}
