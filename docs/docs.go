// Package docs holds the OpenAPI description served at /swagger.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/auth/recuperar": {
            "post": {
                "tags": ["Auth"],
                "summary": "Recover password",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.RecoverRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            }
        },
        "/auth/redefinir": {
            "post": {
                "tags": ["Auth"],
                "summary": "Reset password",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.ResetRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Auth"],
                "summary": "Logout",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            }
        },
        "/saldo": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Carteira"],
                "summary": "Saldo",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/recarga": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Carteira"],
                "summary": "Recarga",
                "parameters": [
                    {"type": "string", "description": "Client generated key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.RechargeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.SuccessResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/extrato": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Carteira"],
                "summary": "Extrato",
                "parameters": [
                    {"type": "integer", "description": "Page size (default 10, max 50)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Entries to skip", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            }
        },
        "/ticket": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Ticket"],
                "summary": "Generate meal ticket",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.IssueTicketRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/cardapio": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Cardapio"],
                "summary": "Cardápio",
                "parameters": [{"type": "string", "description": "Date (YYYY-MM-DD), default today", "name": "data", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            }
        },
        "/avaliacao": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Avaliacao"],
                "summary": "Get rating",
                "parameters": [{"type": "integer", "description": "Menu ID", "name": "cardapio_id", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Avaliacao"],
                "summary": "Submit rating",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.RatingInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/admin/cardapio": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "List menus (admin)",
                "parameters": [{"type": "string", "name": "data", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Create menu (admin)",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.MenuInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.SuccessResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/admin/cardapio/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Update menu (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.MenuUpdate"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Deactivate menu (admin)",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            }
        },
        "/admin/usuarios": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "List users (admin)",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            }
        },
        "/admin/usuarios/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Update user (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.UserUpdate"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            }
        },
        "/admin/avaliacoes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Ratings report (admin)",
                "parameters": [
                    {"type": "string", "name": "data", "in": "query"},
                    {"type": "string", "name": "refeicao", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}}}
            }
        },
        "/admin/avaliacoes/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["Admin"],
                "summary": "Ratings report spreadsheet (admin)",
                "parameters": [
                    {"type": "string", "name": "data", "in": "query"},
                    {"type": "string", "name": "refeicao", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/admin/ticket/validar": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Validate meal ticket",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.RedeemTicketRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "senha"],
            "properties": {"email": {"type": "string"}, "senha": {"type": "string"}}
        },
        "handlers.RecoverRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "handlers.ResetRequest": {
            "type": "object",
            "required": ["token", "nova_senha"],
            "properties": {"token": {"type": "string"}, "nova_senha": {"type": "string", "minLength": 6}}
        },
        "handlers.RechargeRequest": {
            "type": "object",
            "properties": {"valor": {"type": "number", "example": 20}, "metodo": {"type": "string", "example": "pix"}}
        },
        "handlers.IssueTicketRequest": {
            "type": "object",
            "required": ["refeicao"],
            "properties": {"refeicao": {"type": "string", "enum": ["almoco", "jantar"]}}
        },
        "handlers.RedeemTicketRequest": {
            "type": "object",
            "required": ["codigo"],
            "properties": {"codigo": {"type": "string", "format": "uuid"}}
        },
        "models.ItemCardapio": {
            "type": "object",
            "required": ["categoria", "descricao"],
            "properties": {
                "categoria": {"type": "string", "enum": ["principal", "guarnicao", "arroz_feijao", "salada", "sobremesa", "suco", "outro"]},
                "descricao": {"type": "string", "maxLength": 255},
                "imagem_url": {"type": "string"},
                "calorias": {"type": "integer"},
                "proteinas_g": {"type": "number"},
                "carboidratos_g": {"type": "number"}
            }
        },
        "services.MenuInput": {
            "type": "object",
            "properties": {
                "data_ref": {"type": "string", "example": "2025-07-10"},
                "refeicao": {"type": "string", "enum": ["almoco", "jantar"]},
                "itens": {"type": "array", "items": {"$ref": "#/definitions/models.ItemCardapio"}}
            }
        },
        "services.MenuUpdate": {
            "type": "object",
            "properties": {
                "data_ref": {"type": "string"},
                "refeicao": {"type": "string", "enum": ["almoco", "jantar"]},
                "ativo": {"type": "boolean"},
                "itens": {"type": "array", "items": {"$ref": "#/definitions/models.ItemCardapio"}}
            }
        },
        "services.RatingInput": {
            "type": "object",
            "properties": {
                "cardapio_id": {"type": "integer"},
                "nota_sabor": {"type": "integer"},
                "nota_temp": {"type": "integer"},
                "nota_atend": {"type": "integer"},
                "nota_limpeza": {"type": "integer"},
                "nota_geral": {"type": "integer"},
                "comentario": {"type": "string"}
            }
        },
        "services.UserUpdate": {
            "type": "object",
            "properties": {"tipo": {"type": "string", "enum": ["estudante", "admin"]}, "ativo": {"type": "boolean"}}
        },
        "services.SuccessResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "success"}, "data": {}}
        },
        "services.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "error"},
                "mensagem": {"type": "string"},
                "codigo": {"type": "integer"},
                "detalhes": {"type": "object", "additionalProperties": {"type": "string"}}
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
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "RU Digital API",
	Description:      "Carteira digital e cardápio do Restaurante Universitário",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
