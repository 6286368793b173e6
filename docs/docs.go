// Package docs registers the OpenAPI description of the JSON API served at
// /swagger/index.html.
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
        "/api/v1/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register",
                "parameters": [
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/signupInput"}}
                ],
                "responses": {
                    "200": {"description": "id", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/loginInput"}}
                ],
                "responses": {
                    "200": {"description": "token", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/account": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["account"],
                "summary": "Account details",
                "responses": {
                    "200": {"description": "username, name, balance, currency", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/account/deposit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["account"],
                "summary": "Deposit",
                "parameters": [
                    {"type": "string", "description": "Replays with the same key are rejected", "name": "Idempotency-Key", "in": "header"},
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/amountRequest"}}
                ],
                "responses": {
                    "200": {"description": "balance", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}},
                    "422": {"description": "balance limit", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/account/withdraw": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Fails with 409 and the available balance when funds are insufficient.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["account"],
                "summary": "Withdraw",
                "parameters": [
                    {"type": "string", "description": "Replays with the same key are rejected", "name": "Idempotency-Key", "in": "header"},
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/amountRequest"}}
                ],
                "responses": {
                    "200": {"description": "balance", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object"}},
                    "409": {"description": "error, available", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/account/entries": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). A date-only 'to' is treated as end of day.",
                "produces": ["application/json"],
                "tags": ["account"],
                "summary": "List ledger entries",
                "parameters": [
                    {"type": "string", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "description": "End of range", "name": "to", "in": "query"},
                    {"enum": ["DEPOSIT", "WITHDRAW"], "type": "string", "description": "Entry kind", "name": "kind", "in": "query"},
                    {"type": "integer", "description": "Max entries (default 50, max 500)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, entries", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "amountRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {"amount": {"type": "string", "example": "100.00"}}
        },
        "loginInput": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "signupInput": {
            "type": "object",
            "required": ["name", "username", "email", "password"],
            "properties": {
                "name": {"type": "string", "minLength": 1, "maxLength": 50},
                "username": {"type": "string", "minLength": 4, "maxLength": 25},
                "email": {"type": "string", "minLength": 6, "maxLength": 50},
                "password": {"type": "string"},
                "confirm": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Banking Portal API",
	Description:      "Register, sign in and move money on a single balance.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
