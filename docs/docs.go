// Package docs holds the swag-generated OpenAPI document. Regenerate with
// `swag init -g cmd/llamad/docs.go -o docs` after changing handler
// annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Generate a completion",
                "parameters": [
                    {
                        "description": "conversation",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateFinal"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/memory": {
            "get": {
                "produces": ["application/json"],
                "summary": "Memory usage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MemoryResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/model": {
            "get": {
                "produces": ["application/json"],
                "summary": "Loaded model metadata",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "List model files",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/v1/reset": {
            "post": {
                "produces": ["application/json"],
                "summary": "Reset session context",
                "responses": {
                    "204": {"description": "No Content"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/stats": {
            "get": {
                "produces": ["application/json"],
                "summary": "Generation statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatsResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ChatMessage": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "example": "user"},
                "content": {"type": "string", "example": "Describe this picture."},
                "images": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "kind": {"type": "string", "example": "invalid_parameters"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.GenerateFinal": {
            "type": "object",
            "properties": {
                "done": {"type": "boolean", "example": true},
                "content": {"type": "string"},
                "tokens_generated": {"type": "integer", "example": 42},
                "tokens_per_second": {"type": "number", "example": 31.5},
                "elapsed_seconds": {"type": "number", "example": 1.33}
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "messages": {"type": "array", "items": {"$ref": "#/definitions/types.ChatMessage"}},
                "stream": {"type": "boolean", "example": true},
                "sampling": {"$ref": "#/definitions/types.SamplingParams"}
            }
        },
        "types.MemoryResponse": {
            "type": "object",
            "properties": {
                "model_mb": {"type": "integer", "example": 4600},
                "context_mb": {"type": "integer", "example": 512},
                "total_mb": {"type": "integer", "example": 5112}
            }
        },
        "types.ModelFile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "path": {"type": "string"},
                "mmproj_path": {"type": "string"}
            }
        },
        "types.ModelResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "llama 8B Q4_K_M"},
                "architecture": {"type": "string", "example": "llama"},
                "parameter_count": {"type": "integer", "example": 8030000000},
                "context_size": {"type": "integer", "example": 8192},
                "supports_vision": {"type": "boolean", "example": false},
                "capabilities": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.ModelFile"}}
            }
        },
        "types.SamplingParams": {
            "type": "object",
            "properties": {
                "temperature": {"type": "number"},
                "top_p": {"type": "number"},
                "top_k": {"type": "integer"},
                "min_p": {"type": "number"},
                "typical_p": {"type": "number"},
                "repeat_penalty": {"type": "number"},
                "repeat_last_n": {"type": "integer"},
                "frequency_penalty": {"type": "number"},
                "presence_penalty": {"type": "number"},
                "n_predict": {"type": "integer"}
            }
        },
        "types.StatsResponse": {
            "type": "object",
            "properties": {
                "tokens_generated": {"type": "integer", "example": 42},
                "tokens_per_second": {"type": "number", "example": 31.5},
                "elapsed_seconds": {"type": "number", "example": 1.33},
                "state": {"type": "string", "example": "finished"},
                "sampling": {"$ref": "#/definitions/types.SamplingParams"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "llamad API",
	Description:      "HTTP API for local LLM session management and generation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
