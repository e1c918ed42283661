package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Registration API",
        "description": "Public exam-registration intake and admin dashboard API",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Public", "description": "Registration form intake"},
        {"name": "Authentication", "description": "Admin login and token management"},
        {"name": "Admin", "description": "Submission management"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/submit": {
            "post": {
                "tags": ["Public"],
                "summary": "Submit a registration",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "first_name", "in": "formData", "type": "string", "required": true},
                    {"name": "last_name", "in": "formData", "type": "string", "required": true},
                    {"name": "birth_date", "in": "formData", "type": "string", "required": true},
                    {"name": "cnp", "in": "formData", "type": "string", "required": true},
                    {"name": "phone", "in": "formData", "type": "string", "required": true},
                    {"name": "email", "in": "formData", "type": "string", "required": true},
                    {"name": "exam", "in": "formData", "type": "string", "required": true}
                ],
                "responses": {
                    "303": {"description": "Redirect to /?success=1 or /?error=..."}
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate the admin",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/admin/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh the access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/admin/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the current refresh token",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "204": {"description": "Revoked"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/admin/submissions": {
            "get": {
                "tags": ["Admin"],
                "summary": "List submissions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "exam", "in": "query", "type": "string"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListSubmissionsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/admin/submissions/{id}": {
            "patch": {
                "tags": ["Admin"],
                "summary": "Set the done flag",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSubmissionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AckResponse"}}
                }
            },
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AckResponse"}}
                }
            }
        },
        "/admin/submissions/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Registration counters",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SubmissionStats"}}
                }
            }
        },
        "/admin/submissions/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export submissions as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "exam", "in": "query", "type": "string"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document bytes"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "email": {"type": "string"},
                "issued_at": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "ListSubmissionsResponse": {
            "type": "object",
            "properties": {
                "rows": {"type": "array", "items": {"$ref": "#/definitions/Submission"}}
            }
        },
        "Submission": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "birth_date": {"type": "string"},
                "cnp": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "exam": {"type": "string"},
                "done": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "UpdateSubmissionRequest": {
            "type": "object",
            "required": ["done"],
            "properties": {
                "done": {"type": "boolean"}
            }
        },
        "AckResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"}
            }
        },
        "SubmissionStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "done": {"type": "integer"},
                "pending": {"type": "integer"},
                "by_exam": {"type": "object"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
