// Package docs holds the OpenAPI document of the trendcore HTTP API.
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
        "/auth/token": {
            "post": {
                "description": "Exchange the operator key for a JWT bearer token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Issue operator token",
                "parameters": [
                    {"description": "Operator key", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.TokenResponse"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Invalid operator key", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Authentication disabled", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/tools/get_latest_news": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Today's titles per platform at their first rank, sorted by rank",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "Latest news",
                "parameters": [
                    {"description": "Arguments", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/driving.LatestNewsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.Envelope"}}
                }
            }
        },
        "/tools/get_news_by_date": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Titles of one past day with first and average rank",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "News by date",
                "parameters": [
                    {"description": "Arguments", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/driving.NewsByDateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.Envelope"}}
                }
            }
        },
        "/tools/search_news": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Case-insensitive keyword search over a date range",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "Search news",
                "parameters": [
                    {"description": "Arguments", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.Envelope"}}
                }
            }
        },
        "/tools/get_trending_topics": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Frequency of the configured keyword groups",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "Trending topics",
                "parameters": [
                    {"description": "Arguments", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/driving.TrendingTopicsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.Envelope"}}
                }
            }
        },
        "/tools/get_new_titles": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Titles that first appeared in the latest snapshot of a day",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "New titles",
                "parameters": [
                    {"description": "Arguments", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/driving.NewTitlesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.Envelope"}}
                }
            }
        },
        "/tools/get_system_status": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Archive range, storage size, cache statistics and version",
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "System status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.Envelope"}}
                }
            }
        },
        "/tools/resolve_date": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Resolve a natural-language date expression to a calendar date",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "Resolve date",
                "parameters": [
                    {"description": "Arguments", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.ResolveDateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "domain.TokenRequest": {
            "type": "object",
            "properties": {"operator_key": {"type": "string", "example": "s3cret"}}
        },
        "domain.TokenResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "expires_at": {"type": "string"}}
        },
        "domain.DateRange": {
            "type": "object",
            "properties": {
                "start": {"type": "string", "example": "2025-10-01"},
                "end": {"type": "string", "example": "2025-10-10"}
            }
        },
        "domain.Diagnostic": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "line": {"type": "integer"},
                "reason": {"type": "string"}
            }
        },
        "domain.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "DATA_NOT_FOUND"},
                "message": {"type": "string", "example": "no data for 2025-10-10"},
                "suggestion": {"type": "string", "example": "run the crawler first or check the date"}
            }
        },
        "domain.Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/domain.ErrorBody"},
                "skipped": {"type": "array", "items": {"$ref": "#/definitions/domain.Diagnostic"}}
            }
        },
        "driving.LatestNewsRequest": {
            "type": "object",
            "properties": {
                "platforms": {"type": "array", "items": {"type": "string"}},
                "limit": {"type": "integer", "example": 50},
                "include_url": {"type": "boolean"}
            }
        },
        "driving.NewsByDateRequest": {
            "type": "object",
            "properties": {
                "date_query": {"type": "string", "example": "昨天"},
                "platforms": {"type": "array", "items": {"type": "string"}},
                "limit": {"type": "integer", "example": 50},
                "include_url": {"type": "boolean"}
            }
        },
        "driving.SearchRequest": {
            "type": "object",
            "properties": {
                "keyword": {"type": "string", "example": "AI"},
                "date_range": {"$ref": "#/definitions/domain.DateRange"},
                "platforms": {"type": "array", "items": {"type": "string"}},
                "limit": {"type": "integer", "example": 50},
                "include_url": {"type": "boolean"}
            }
        },
        "driving.TrendingTopicsRequest": {
            "type": "object",
            "properties": {
                "top_n": {"type": "integer", "example": 10},
                "mode": {"type": "string", "example": "current", "enum": ["daily", "current", "incremental"]}
            }
        },
        "driving.NewTitlesRequest": {
            "type": "object",
            "properties": {
                "date_query": {"type": "string", "example": "今天"},
                "platforms": {"type": "array", "items": {"type": "string"}}
            }
        },
        "driving.ResolveDateRequest": {
            "type": "object",
            "properties": {"expression": {"type": "string", "example": "上周一"}}
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "invalid request body"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "trendcore API",
	Description:      "Query API over an archive of hot-list snapshots: latest and historical titles, keyword search, trending topics and new-title detection.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
