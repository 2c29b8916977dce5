package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/metropath/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	lineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Line",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.String},
			"name":  &graphql.Field{Type: graphql.String},
			"color": &graphql.Field{Type: graphql.String},
		},
	})

	stationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Station",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"lat":         &graphql.Field{Type: graphql.Float},
			"lng":         &graphql.Field{Type: graphql.Float},
			"lines":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"is_transfer": &graphql.Field{Type: graphql.Boolean},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	routeNodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteNode",
		Fields: graphql.Fields{
			"key":        &graphql.Field{Type: graphql.String},
			"station_id": &graphql.Field{Type: graphql.String},
			"line_id":    &graphql.Field{Type: graphql.String},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"from":                 &graphql.Field{Type: graphql.String},
			"to":                   &graphql.Field{Type: graphql.String},
			"minutes":              &graphql.Field{Type: graphql.Float},
			"stops":                &graphql.Field{Type: graphql.Int},
			"transfers":            &graphql.Field{Type: graphql.Int},
			"coords":               &graphql.Field{Type: graphql.NewList(graphql.NewList(graphql.Float))},
			"transfer_station_ids": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"path":                 &graphql.Field{Type: graphql.NewList(graphql.String)},
			"nodes":                &graphql.Field{Type: graphql.NewList(routeNodeType)},
		},
	})

	networkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Network",
		Fields: graphql.Fields{
			"checksum":          &graphql.Field{Type: graphql.String},
			"lines":             &graphql.Field{Type: graphql.Int},
			"stations":          &graphql.Field{Type: graphql.Int},
			"edges":             &graphql.Field{Type: graphql.Int},
			"nodes":             &graphql.Field{Type: graphql.Int},
			"arcs":              &graphql.Field{Type: graphql.Int},
			"transfer_stations": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"network": &graphql.Field{
				Type:        networkType,
				Description: "Summary of the loaded network",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					snap, err := deps.Network.Current(p.Context)
					if err != nil {
						return nil, err
					}
					return networkInfo(snap), nil
				},
			},
			"lines": &graphql.Field{
				Type:        graphql.NewList(lineType),
				Description: "List all lines",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Stations.ListLines(p.Context)
				},
			},
			"stations": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "List stations, optionally for one line",
				Args: graphql.FieldConfigArgument{
					"line": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					line, _ := p.Args["line"].(string)
					return deps.Stations.ListStations(p.Context, line)
				},
			},
			"station": &graphql.Field{
				Type:        stationType,
				Description: "Get a station by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Stations.GetStation(p.Context, id)
				},
			},
			"searchStations": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "Search stations by name",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Stations.Search(p.Context, q, limit)
				},
			},
			"transferStations": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "Stations served by two or more lines",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Stations.TransferStations(p.Context)
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Fastest route between two stations",
				Args: graphql.FieldConfigArgument{
					"from": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					res, err := deps.Routes.Plan(p.Context, p.Args["from"].(string), p.Args["to"].(string))
					if err != nil {
						return nil, err
					}
					return routeToGraph(res), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// routeToGraph flattens a route into GraphQL-friendly maps; node metadata
// is listed in path order.
func routeToGraph(res *domain.RouteResult) map[string]interface{} {
	coords := make([][]float64, len(res.Coords))
	for i, c := range res.Coords {
		coords[i] = []float64{c[0], c[1]}
	}

	nodes := make([]map[string]interface{}, 0, len(res.Path))
	for _, key := range res.Path {
		meta := res.NodeMeta[key]
		nodes = append(nodes, map[string]interface{}{
			"key":        key,
			"station_id": meta.StationID,
			"line_id":    meta.LineID,
		})
	}

	return map[string]interface{}{
		"from":                 res.From,
		"to":                   res.To,
		"minutes":              res.Minutes,
		"stops":                res.Stops,
		"transfers":            res.Transfers,
		"coords":               coords,
		"transfer_station_ids": res.TransferStationIDs,
		"path":                 res.Path,
		"nodes":                nodes,
	}
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

		return c.JSON(result)
	}
}
