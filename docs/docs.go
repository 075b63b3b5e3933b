// Package docs holds the swagger specification registered at startup.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/billing/tiers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["billing"],
                "summary": "List severity tiers",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.TierResponse"}}
                    }
                }
            }
        },
        "/billing/split-preview": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["billing"],
                "summary": "Preview the split partition for a payment total",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.SplitPreviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SplitPreviewResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/billing/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["billing"],
                "summary": "List gateway payments",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "customer", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "externalReference", "in": "query", "type": "string"},
                    {"name": "offset", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PaymentListResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["billing"],
                "summary": "Create a gateway payment partitioned among beneficiaries",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreatePaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.PaymentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/billing/payments/{paymentId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["billing"],
                "summary": "Get one gateway payment with its split rows",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "paymentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PaymentResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/billing/payments/{paymentId}/splits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["billing"],
                "summary": "List the split rows of a payment",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "paymentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.SplitEntryResponse"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/wallet/balance": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["wallet"],
                "summary": "Get the organization's prepaid balance",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BalanceResponse"}}
                }
            }
        },
        "/wallet/statement": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["wallet"],
                "summary": "Get the organization's ledger statement",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.LedgerEntryResponse"}}}
                }
            }
        },
        "/wallet/funds": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["wallet"],
                "summary": "Credit the prepaid balance",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.AddFundsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.LedgerEntryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/wallet/debits": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["wallet"],
                "summary": "Debit the prepaid balance for a consumed service",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.DebitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.LedgerEntryResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/recharges": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["recharges"],
                "summary": "List the organization's recharges",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.RechargeResponse"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["recharges"],
                "summary": "Create a PIX recharge for the prepaid wallet",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateRechargeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.RechargeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/recharges/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["recharges"],
                "summary": "Get one recharge",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RechargeResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/recharges/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["recharges"],
                "summary": "Cancel a pending recharge",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RechargeResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/webhooks/asaas": {
            "post": {
                "tags": ["webhooks"],
                "summary": "Receive payment lifecycle events from the gateway",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.WebhookResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ProblemDetails": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"},
                "instance": {"type": "string"}
            }
        },
        "handler.TierResponse": {
            "type": "object",
            "properties": {
                "severity": {"type": "string"},
                "platformCost": {"type": "string"},
                "partnerCost": {"type": "string"},
                "processingFee": {"type": "string"},
                "minimumTotal": {"type": "string"}
            }
        },
        "handler.SplitPreviewRequest": {
            "type": "object",
            "properties": {
                "severity": {"type": "string"},
                "totalAmount": {"type": "string"}
            }
        },
        "handler.SplitPreviewResponse": {
            "type": "object",
            "properties": {
                "totalAmount": {"type": "string"},
                "splits": {"type": "array", "items": {"$ref": "#/definitions/handler.SplitEntryResponse"}}
            }
        },
        "handler.SplitEntryResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "paymentId": {"type": "string"},
                "role": {"type": "string"},
                "organizationId": {"type": "integer"},
                "walletId": {"type": "string"},
                "amount": {"type": "string"},
                "percentage": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.CreatePaymentRequest": {
            "type": "object",
            "properties": {
                "customerId": {"type": "string"},
                "severity": {"type": "string"},
                "totalAmount": {"type": "string"},
                "description": {"type": "string"},
                "dueDate": {"type": "string"},
                "externalReference": {"type": "string"}
            }
        },
        "handler.PaymentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string"},
                "value": {"type": "number"},
                "dueDate": {"type": "string"},
                "invoiceUrl": {"type": "string"},
                "externalReference": {"type": "string"},
                "splits": {"type": "array", "items": {"$ref": "#/definitions/handler.SplitEntryResponse"}}
            }
        },
        "handler.PaymentListResponse": {
            "type": "object",
            "properties": {
                "hasMore": {"type": "boolean"},
                "totalCount": {"type": "integer"},
                "payments": {"type": "array", "items": {"$ref": "#/definitions/handler.PaymentResponse"}}
            }
        },
        "handler.AddFundsRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "handler.BalanceResponse": {
            "type": "object",
            "properties": {
                "organizationId": {"type": "integer"},
                "balance": {"type": "string"}
            }
        },
        "handler.LedgerEntryResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "type": {"type": "string"},
                "amount": {"type": "string"},
                "balance": {"type": "string"},
                "description": {"type": "string"},
                "serviceRef": {"type": "string"},
                "rechargeId": {"type": "integer"},
                "createdAt": {"type": "string"}
            }
        },
        "handler.DebitRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "serviceRef": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "handler.CreateRechargeRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"}
            }
        },
        "handler.RechargeResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "organizationId": {"type": "integer"},
                "amount": {"type": "string"},
                "gatewayPaymentId": {"type": "string"},
                "status": {"type": "string"},
                "pixPayload": {"type": "string"},
                "pixQrCodeUrl": {"type": "string"},
                "invoiceUrl": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "handler.WebhookResponse": {
            "type": "object",
            "properties": {
                "received": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Recorra Billing API",
	Description:      "Payment split and prepaid wallet billing core for traffic fine appeals.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
