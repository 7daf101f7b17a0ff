package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/pawmatch/internal/auth"
	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/pkg/geospatial"
)

// dogField resolves a Dog attribute from either a Dog or a DogWithLocation.
func dogField(get func(domain.Dog) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		switch v := p.Source.(type) {
		case domain.Dog:
			return get(v), nil
		case *domain.Dog:
			return get(*v), nil
		case domain.DogWithLocation:
			return get(v.Dog), nil
		case *domain.DogWithLocation:
			return get(v.Dog), nil
		}
		return nil, nil
	}
}

func stringList(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func optionalIntArg(args map[string]interface{}, name string) *int {
	if v, ok := args[name].(int); ok {
		return &v
	}
	return nil
}

func ownerOf(p graphql.ResolveParams) (*auth.Principal, error) {
	principal, ok := auth.FromContext(p.Context)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return principal, nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"top_left":     &graphql.Field{Type: geoPointType},
			"bottom_right": &graphql.Field{Type: geoPointType},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"zip_code":  &graphql.Field{Type: graphql.String},
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
			"city":      &graphql.Field{Type: graphql.String},
			"state":     &graphql.Field{Type: graphql.String},
			"county":    &graphql.Field{Type: graphql.String},
		},
	})

	dogType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dog",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String, Resolve: dogField(func(d domain.Dog) interface{} { return d.ID })},
			"img":      &graphql.Field{Type: graphql.String, Resolve: dogField(func(d domain.Dog) interface{} { return d.Img })},
			"name":     &graphql.Field{Type: graphql.String, Resolve: dogField(func(d domain.Dog) interface{} { return d.Name })},
			"age":      &graphql.Field{Type: graphql.Int, Resolve: dogField(func(d domain.Dog) interface{} { return d.Age })},
			"zip_code": &graphql.Field{Type: graphql.String, Resolve: dogField(func(d domain.Dog) interface{} { return d.ZipCode })},
			"breed":    &graphql.Field{Type: graphql.String, Resolve: dogField(func(d domain.Dog) interface{} { return d.Breed })},
			"location": &graphql.Field{
				Type: locationType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if v, ok := p.Source.(domain.DogWithLocation); ok && v.Location != nil {
						return v.Location, nil
					}
					return nil, nil
				},
			},
		},
	})

	pageItemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageItem",
		Fields: graphql.Fields{
			"page":     &graphql.Field{Type: graphql.Int},
			"ellipsis": &graphql.Field{Type: graphql.Boolean},
			"current":  &graphql.Field{Type: graphql.Boolean},
		},
	})

	pageInfoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"from":         &graphql.Field{Type: graphql.Int},
			"size":         &graphql.Field{Type: graphql.Int},
			"current_page": &graphql.Field{Type: graphql.Int},
			"total_pages":  &graphql.Field{Type: graphql.Int},
			"pages":        &graphql.Field{Type: graphql.NewList(pageItemType)},
		},
	})

	searchPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchPage",
		Fields: graphql.Fields{
			"dogs":  &graphql.Field{Type: graphql.NewList(dogType)},
			"total": &graphql.Field{Type: graphql.Int},
			"next":  &graphql.Field{Type: graphql.String},
			"prev":  &graphql.Field{Type: graphql.String},
			"page":  &graphql.Field{Type: pageInfoType},
		},
	})

	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Nearby",
		Fields: graphql.Fields{
			"center":    &graphql.Field{Type: geoPointType},
			"miles":     &graphql.Field{Type: graphql.Float},
			"bounds":    &graphql.Field{Type: boundsType},
			"zip_codes": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"locations": &graphql.Field{Type: graphql.NewList(locationType)},
		},
	})

	toggleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FavoriteToggle",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"favorite": &graphql.Field{Type: graphql.Boolean},
			"ids":      &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	matchType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Match",
		Fields: graphql.Fields{
			"dog_id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(*domain.Match); ok {
						return m.DogID, nil
					}
					return nil, nil
				},
			},
			"dog":        &graphql.Field{Type: dogType},
			"matched_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	centerArgs := graphql.FieldConfigArgument{
		"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"miles": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: geospatial.DefaultDiagonalMiles},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"bounds": &graphql.Field{
				Type:        boundsType,
				Description: "Bounding box around a point for a given diagonal in miles",
				Args:        centerArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Nearby.Bounds(p.Args["lat"].(float64), p.Args["lon"].(float64), p.Args["miles"].(float64))
				},
			},
			"breeds": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Every breed known to the adoption service",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.Breeds(p.Context)
				},
			},
			"searchDogs": &graphql.Field{
				Type:        searchPageType,
				Description: "Filtered, sorted, paginated dog search",
				Args: graphql.FieldConfigArgument{
					"breeds":   &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"zipCodes": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"ageMin":   &graphql.ArgumentConfig{Type: graphql.Int},
					"ageMax":   &graphql.ArgumentConfig{Type: graphql.Int},
					"sort":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.DefaultSort.String()},
					"size":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: domain.PageSize},
					"from":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sort, err := domain.ParseSort(p.Args["sort"].(string))
					if err != nil {
						return nil, err
					}
					return deps.Search.Search(p.Context, domain.SearchQuery{
						Breeds:   stringList(p.Args["breeds"]),
						ZipCodes: stringList(p.Args["zipCodes"]),
						AgeMin:   optionalIntArg(p.Args, "ageMin"),
						AgeMax:   optionalIntArg(p.Args, "ageMax"),
						Sort:     sort,
						Size:     p.Args["size"].(int),
						From:     p.Args["from"].(int),
					})
				},
			},
			"dogs": &graphql.Field{
				Type:        graphql.NewList(dogType),
				Description: "Dogs by ID, at most 100",
				Args: graphql.FieldConfigArgument{
					"ids": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ids := stringList(p.Args["ids"])
					if len(ids) > 100 {
						return nil, domain.InvalidArgument("at most 100 dog ids per request")
					}
					return deps.Search.Dogs(p.Context, ids)
				},
			},
			"nearby": &graphql.Field{
				Type:        nearbyType,
				Description: "Locations inside the bounding box around a point",
				Args:        centerArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Nearby.NearbyZipCodes(p.Context, p.Args["lat"].(float64), p.Args["lon"].(float64), p.Args["miles"].(float64))
				},
			},
			"favorites": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "The caller's favorite dog IDs in the order they were added",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					principal, err := ownerOf(p)
					if err != nil {
						return nil, err
					}
					return deps.Favorites.List(p.Context, principal.Owner())
				},
			},
			"favoriteDogs": &graphql.Field{
				Type:        graphql.NewList(dogType),
				Description: "Details of the caller's favorites",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					principal, err := ownerOf(p)
					if err != nil {
						return nil, err
					}
					return deps.Matches.FavoriteDogs(p.Context, principal.Owner())
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"toggleFavorite": &graphql.Field{
				Type:        toggleType,
				Description: "Add a dog to the caller's favorites, or remove it if present",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					principal, err := ownerOf(p)
					if err != nil {
						return nil, err
					}
					id := p.Args["id"].(string)
					added, ids, err := deps.Favorites.Toggle(p.Context, principal.Owner(), id)
					if err != nil {
						return nil, err
					}
					return toggleResponse{ID: id, Favorite: added, IDs: ids}, nil
				},
			},
			"match": &graphql.Field{
				Type:        matchType,
				Description: "Pick a match out of the caller's favorites",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					principal, err := ownerOf(p)
					if err != nil {
						return nil, err
					}
					return deps.Matches.Match(p.Context, principal.Owner())
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(result)
	}
}
