// Package docs registers the control API description with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Controller state and counters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "summary": "Health snapshot",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/readyz": {
            "get": {
                "summary": "Ready while the engine is running",
                "responses": {"200": {"description": "ready"}, "503": {"description": "stopped"}}
            }
        },
        "/version": {
            "get": {
                "produces": ["application/json"],
                "summary": "Build identity",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.VersionResponse"}}}
            }
        },
        "/engine/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Engine health document",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/start": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Start the engine with the body or a named profile",
                "parameters": [
                    {"type": "string", "name": "profile", "in": "query"},
                    {"name": "config", "in": "body", "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.OpResponse"}},
                    "404": {"description": "profile not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "already running", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "engine error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/reload": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Reload the running engine",
                "parameters": [{"name": "config", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.OpResponse"}},
                    "409": {"description": "not running", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "engine error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/stop": {
            "post": {
                "produces": ["application/json"],
                "summary": "Stop the engine",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.OpResponse"}}}
            }
        },
        "/v1/log-level": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Set the log threshold",
                "parameters": [{"name": "level", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.LogLevelRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "unknown level"}}
            }
        },
        "/v1/profiles": {
            "get": {
                "produces": ["application/json"],
                "summary": "List engine config profiles",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ProfilesResponse"}}}
            }
        },
        "/v1/events": {
            "get": {
                "summary": "Websocket stream of log and event callbacks",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}
        },
        "types.OpResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "types.LogLevelRequest": {
            "type": "object",
            "properties": {"level": {"type": "string"}}
        },
        "types.VersionResponse": {
            "type": "object",
            "properties": {
                "version": {"type": "string"},
                "name": {"type": "string"},
                "sdk_version": {"type": "string"},
                "engine": {"type": "string"},
                "commit": {"type": "string"},
                "build_time": {"type": "string"}
            }
        },
        "types.ProfilesResponse": {
            "type": "object",
            "properties": {
                "profiles": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {"name": {"type": "string"}, "path": {"type": "string"}, "size": {"type": "integer"}}
                    }
                }
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string"},
                "status": {"type": "string"},
                "version": {"type": "string"},
                "engine_version": {"type": "string"},
                "log_level": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "last_error": {"type": "string"},
                "last_error_unix": {"type": "integer"},
                "operations": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "hy2core control API",
	Description:      "Lifecycle, health and log streaming for the hy2core engine.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
