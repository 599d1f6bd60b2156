// Package docs holds the Swagger document for the humanizerd API.
// Regenerate with `swag init -g cmd/humanizerd/docs.go`.
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
    "securityDefinitions": {
        "AuthCode": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.RootResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Detailed health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/info": {
            "get": {
                "security": [{"AuthCode": []}],
                "produces": ["application/json"],
                "summary": "API information",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.InfoResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/humanize": {
            "post": {
                "security": [{"AuthCode": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Rewrite text to sound natural",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.HumanizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HumanizeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string", "example": "Invalid authorization code"}
            }
        },
        "types.HumanizeRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string", "example": "The utilization of advanced methodologies facilitates optimal outcomes."},
                "temperature": {"type": "number", "example": 0.7},
                "max_new_tokens": {"type": "integer", "example": 300},
                "top_p": {"type": "number", "example": 0.9}
            }
        },
        "types.HumanizeResponse": {
            "type": "object",
            "properties": {
                "original_text": {"type": "string"},
                "humanized_text": {"type": "string"},
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "Text humanized successfully"}
            }
        },
        "types.RootResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "AI Text Humanizer API"},
                "status": {"type": "string", "example": "healthy"},
                "device": {"type": "string", "example": "cpu"},
                "model_loaded": {"type": "boolean", "example": true}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "model_loaded": {"type": "boolean", "example": true},
                "device": {"type": "string", "example": "cpu"},
                "torch_version": {"type": "string", "example": "llama-server b4000"},
                "cuda_available": {"type": "boolean", "example": false}
            }
        },
        "types.ModelInfo": {
            "type": "object",
            "properties": {
                "device": {"type": "string"},
                "model_loaded": {"type": "boolean"},
                "torch_version": {"type": "string"},
                "base_model": {"type": "string", "example": "microsoft/DialoGPT-medium"},
                "adapter_path": {"type": "string", "example": "./instruction_lora_humanizer_adapter"}
            }
        },
        "types.InfoResponse": {
            "type": "object",
            "properties": {
                "api_name": {"type": "string", "example": "AI Text Humanizer"},
                "version": {"type": "string", "example": "1.0.0"},
                "model_info": {"$ref": "#/definitions/types.ModelInfo"},
                "endpoints": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "humanizerd API",
	Description:      "Rewrites AI-generated text to sound natural using a LoRA-adapted language model.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
