// Package swagger holds the generated swag.Spec for the service's
// HTTP-only surface. Normally produced by `swag init`; hand-authored here
// in its place since no generator runs as part of this build.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api-keys": {
            "post": {
                "summary": "Issue an API key",
                "tags": ["Credential Gateway"],
                "responses": {"201": {"description": "created"}}
            },
            "get": {
                "summary": "List active API keys",
                "tags": ["Credential Gateway"],
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/api-keys/{projectId}": {
            "get": {
                "summary": "Describe a project's active API key",
                "tags": ["Credential Gateway"],
                "responses": {"200": {"description": "ok"}}
            },
            "delete": {
                "summary": "Revoke a project's active API key",
                "tags": ["Credential Gateway"],
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/usage": {
            "get": {
                "summary": "Project usage report",
                "tags": ["Room"],
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/status": {
            "get": {
                "summary": "Room connection snapshot",
                "tags": ["Room"],
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/health": {
            "get": {
                "summary": "Liveness probe",
                "tags": ["Room"],
                "responses": {"200": {"description": "ok"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Roombus API",
	Description:      "Multi-tenant realtime message bus: Room websocket surface and Credential Gateway.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
