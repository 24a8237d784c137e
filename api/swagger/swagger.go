// Package swagger holds the generated OpenAPI document served at /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "InTransparency Platform API",
        "description": "Recruiting platform API centered on tiered student analytics.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Authenticate with email and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "access and refresh tokens", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "invalid credentials", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Rotate a refresh token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RefreshTokenRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "fresh token pair", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "expired or revoked token", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "profile", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "missing or invalid token", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/dashboard/student/analytics": {
            "get": {
                "tags": ["analytics"],
                "summary": "Student analytics dashboard",
                "description": "Engagement, application funnel and market metrics for the authenticated student, gated by subscription tier.",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "timeRange",
                        "in": "query",
                        "type": "string",
                        "enum": ["1month", "3months", "6months", "1year"],
                        "default": "1month"
                    }
                ],
                "responses": {
                    "200": {"description": "analytics payload", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "missing or invalid token", "schema": {"$ref": "#/definitions/APIError"}},
                    "403": {"description": "role not permitted", "schema": {"$ref": "#/definitions/APIError"}},
                    "500": {"description": "failed to fetch analytics", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["reports"],
                "summary": "Enqueue an analytics export",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateReportRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "queued job", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "invalid report request", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["reports"],
                "summary": "Report job status",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "job status with download URL when finished", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "not the job owner", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "unknown job", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["reports"],
                "summary": "Download a rendered report",
                "description": "The signed token in the path is the sole credential; no session is required.",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "file stream"},
                    "401": {"description": "expired or tampered token", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "file no longer available", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["system"],
                "summary": "Runtime counters snapshot",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "counter snapshot", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "admin only", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        }
    },
    "definitions": {
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "meta": {"type": "object"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"}
                    }
                }
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refreshToken"],
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "CreateReportRequest": {
            "type": "object",
            "required": ["type", "format"],
            "properties": {
                "type": {"type": "string", "enum": ["student_analytics"]},
                "timeRange": {"type": "string", "enum": ["1month", "3months", "6months", "1year"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        }
    }
}`

type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
