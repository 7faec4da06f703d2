// Package swagger registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o api/swagger
package swagger

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
        "/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.LoginUserRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/logout": {
            "post": {"tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}
        },
        "/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Get current user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/projectExpenseAll": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["projectExpense"], "summary": "List project expenses", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/projectExpenseNew": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["projectExpense"],
                "summary": "Create a project expense",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CreateExpenseRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/projectExpenseTags": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["projectExpense"], "summary": "List expense tags", "responses": {"200": {"description": "OK"}}}
        },
        "/projectExpenseUpdate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["projectExpense"], "summary": "Update a project expense by tag", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/projectExpenseReceiveApprove/{id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["projectExpense"],
                "summary": "Approve receipt of a project expense",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/projectExpenseDelete/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["projectExpense"],
                "summary": "Delete one project expense",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/projectExpenseDelete": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["projectExpense"], "summary": "Bulk delete project expenses", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/projectExpenseExport": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["projectExpense"], "summary": "Export project expenses", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "OK"}}}
        },
        "/projectExpenseImport": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["projectExpense"],
                "summary": "Import project expenses",
                "consumes": ["multipart/form-data"],
                "parameters": [{"type": "file", "name": "excelFile", "in": "formData", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/reportGet": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["reports"],
                "summary": "Query inspection reports",
                "parameters": [
                    {"type": "string", "name": "reportType", "in": "query"},
                    {"type": "string", "name": "costCenter", "in": "query"},
                    {"type": "string", "name": "date", "in": "query"},
                    {"type": "string", "name": "inspector", "in": "query"},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/reportGet/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["reports"],
                "summary": "Get one report",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/reportSubmission": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Submit an inspection report", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/cost-centers": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["cost-centers"], "summary": "List cost centers", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["cost-centers"], "summary": "Create a cost center", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/api/cost-centers/{id}/ledger": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["cost-centers"], "summary": "Bank ledger of a cost center", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["cost-centers"], "summary": "Record a bank ledger entry", "responses": {"201": {"description": "Created"}}}
        },
        "/api/messages/{room}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Room history", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Post to a room", "responses": {"201": {"description": "Created"}}}
        },
        "/api/files": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["files"], "summary": "List a directory", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["files"], "summary": "Delete a file", "responses": {"200": {"description": "OK"}}}
        },
        "/api/audit-logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Get audit logs", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "service.LoginUserRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "service.CreateExpenseRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "package": {"type": "string"},
                "unit": {"type": "string"},
                "amount": {"type": "number"},
                "unitPrice": {"type": "number"},
                "vat": {"type": "number"},
                "paid": {"type": "number"},
                "deliveryDate": {"type": "string"},
                "note": {"type": "string"}
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
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Operations Portal API",
	Description:      "Project expenses, inspection reports, cost centers, messaging and file management.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
