// Package docs registers the OpenAPI document served under /swagger.
//
// Regenerate with: swag init -g cmd/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/stock-data": {
            "get": {
                "description": "Price and indicator series, sector summary, news, market overview, indices, index components and earnings in one envelope",
                "produces": ["application/json"],
                "tags": ["market"],
                "summary": "Aggregate market data",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StockDataResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/companies": {
            "get": {
                "produces": ["application/json"],
                "tags": ["market"],
                "summary": "List companies",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.CompanyRef"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/users": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a user with a watchlist",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.RegisterUserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log in by username or email",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/watchlist/{user_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "A user's watchlist",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.CompanyRef"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/test": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe of the API surface",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TestResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Internal server error"},
                "details": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "dto.RegisterUserRequest": {
            "type": "object",
            "required": ["username", "email", "company_ids"],
            "properties": {
                "username": {"type": "string", "example": "jdoe"},
                "email": {"type": "string", "example": "jdoe@example.com"},
                "company_ids": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "dto.RegisterUserResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "User and watchlist created successfully"},
                "user_id": {"type": "integer", "example": 7}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "dto.LoginResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/models.User"},
                "watchlist": {"type": "array", "items": {"$ref": "#/definitions/models.CompanyRef"}}
            }
        },
        "dto.TestResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "Test endpoint working"}}
        },
        "dto.StockDataResponse": {
            "type": "object",
            "properties": {
                "priceData": {"type": "object"},
                "sectorPerformance": {"type": "object"},
                "latestNews": {"type": "array", "items": {"type": "object"}},
                "marketOverview": {"type": "array", "items": {"type": "object"}},
                "technicalIndicators": {"type": "object"},
                "marketIndices": {"type": "object"},
                "indexComponents": {"type": "array", "items": {"type": "object"}},
                "earnings": {"type": "array", "items": {"type": "object"}}
            }
        },
        "models.CompanyRef": {
            "type": "object",
            "properties": {
                "company_id": {"type": "integer", "example": 1},
                "symbol": {"type": "string", "example": "AAPL"},
                "name": {"type": "string", "example": "Apple Inc."}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "user_id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Stock Dashboard API",
	Description:      "Market data aggregation and watchlist API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
