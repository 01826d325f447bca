package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/docs"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

type jsonObject = map[string]interface{}

// Server is an entry of the OpenAPI 3 servers list
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// OpenAPIDocument is the subset of an OpenAPI 3.0 document the API publishes
type OpenAPIDocument struct {
	OpenAPI    string     `json:"openapi"`
	Info       jsonObject `json:"info"`
	Servers    []Server   `json:"servers"`
	Paths      jsonObject `json:"paths"`
	Components jsonObject `json:"components,omitempty"`
}

// OpenAPIHandler serves the registered swag document converted to OpenAPI 3.
// The conversion runs once, on the first request.
func OpenAPIHandler(servers ...Server) echo.HandlerFunc {
	var (
		once sync.Once
		doc  *OpenAPIDocument
		err  error
	)
	return func(c echo.Context) error {
		once.Do(func() {
			var raw string
			raw, err = swag.ReadDoc(docs.SwaggerInfo.InstanceName())
			if err == nil {
				doc, err = ConvertSwagger2([]byte(raw), servers)
			}
			if err != nil {
				log.Error().Err(err).Msg("Failed to build OpenAPI document")
			}
		})
		if err != nil {
			return NewInternalError(c, "API description unavailable")
		}
		return c.JSON(http.StatusOK, doc)
	}
}

// ConvertSwagger2 rewrites a Swagger 2.0 document as OpenAPI 3.0: definitions
// move to components/schemas, body parameters become request bodies and
// response schemas are wrapped in a JSON media type.
func ConvertSwagger2(raw []byte, servers []Server) (*OpenAPIDocument, error) {
	var src jsonObject
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("parse swagger document: %w", err)
	}

	info, _ := src["info"].(jsonObject)
	doc := &OpenAPIDocument{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    servers,
		Paths:      jsonObject{},
		Components: jsonObject{},
	}

	if defs, ok := src["definitions"].(jsonObject); ok {
		doc.Components["schemas"] = rewriteRefs(defs)
	}
	if schemes, ok := src["securityDefinitions"].(jsonObject); ok {
		doc.Components["securitySchemes"] = schemes
	}

	paths, _ := src["paths"].(jsonObject)
	for path, item := range paths {
		ops, ok := item.(jsonObject)
		if !ok {
			continue
		}
		converted := jsonObject{}
		for method, op := range ops {
			if operation, ok := op.(jsonObject); ok {
				converted[method] = convertOperation(operation)
			}
		}
		doc.Paths[path] = converted
	}

	return doc, nil
}

func convertOperation(op jsonObject) jsonObject {
	out := jsonObject{}
	for key, value := range op {
		switch key {
		case "consumes", "produces", "parameters", "responses":
		default:
			out[key] = value
		}
	}

	var params []interface{}
	list, _ := op["parameters"].([]interface{})
	for _, p := range list {
		param, ok := p.(jsonObject)
		if !ok {
			continue
		}
		if param["in"] == "body" {
			body := jsonObject{
				"content": jsonObject{
					echo.MIMEApplicationJSON: jsonObject{"schema": rewriteRefs(param["schema"])},
				},
			}
			if required, ok := param["required"]; ok {
				body["required"] = required
			}
			if description, ok := param["description"]; ok {
				body["description"] = description
			}
			out["requestBody"] = body
			continue
		}
		params = append(params, convertParameter(param))
	}
	if len(params) > 0 {
		out["parameters"] = params
	}

	responses := jsonObject{}
	if src, ok := op["responses"].(jsonObject); ok {
		for status, r := range src {
			resp, ok := r.(jsonObject)
			if !ok {
				continue
			}
			converted := jsonObject{"description": resp["description"]}
			if schema, ok := resp["schema"]; ok {
				converted["content"] = jsonObject{
					echo.MIMEApplicationJSON: jsonObject{"schema": rewriteRefs(schema)},
				}
			}
			responses[status] = converted
		}
	}
	out["responses"] = responses

	return out
}

// convertParameter moves the type keywords of a non-body parameter into a schema
func convertParameter(param jsonObject) jsonObject {
	out := jsonObject{}
	schema := jsonObject{}
	for key, value := range param {
		switch key {
		case "name", "in", "description", "required":
			out[key] = value
		case "type", "format", "enum", "default", "minimum", "maximum":
			schema[key] = value
		case "items":
			schema[key] = rewriteRefs(value)
		}
	}
	if len(schema) > 0 {
		out["schema"] = schema
	}
	return out
}

// rewriteRefs points every $ref at components/schemas
func rewriteRefs(node interface{}) interface{} {
	switch v := node.(type) {
	case jsonObject:
		out := make(jsonObject, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			out[key] = rewriteRefs(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = rewriteRefs(item)
		}
		return out
	default:
		return node
	}
}
