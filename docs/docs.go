// Package docs 由 swag init 生成的接口文档
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
        "/api/v1/cart": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["购物车"],
                "summary": "获取购物车",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["购物车"],
                "summary": "加入购物车",
                "parameters": [{"description": "请求参数", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/rental.AddCartItemRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "delete": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["购物车"],
                "summary": "清空购物车",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/cart/{id}": {
            "put": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["购物车"],
                "summary": "修改租期",
                "parameters": [
                    {"type": "integer", "description": "购物车条目ID", "name": "id", "in": "path", "required": true},
                    {"description": "请求参数", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/rental.UpdateCartItemRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "delete": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["购物车"],
                "summary": "删除购物车条目",
                "parameters": [{"type": "integer", "description": "购物车条目ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/orders": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["订单"],
                "summary": "我的订单",
                "parameters": [
                    {"type": "integer", "description": "订单状态", "name": "status", "in": "query"},
                    {"type": "integer", "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "description": "每页数量", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["订单"],
                "summary": "购物车下单",
                "parameters": [{"description": "请求参数", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/rental.CreateOrderRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/orders/count": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["订单"],
                "summary": "各状态订单数量",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/orders/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["订单"],
                "summary": "订单详情",
                "parameters": [{"type": "integer", "description": "订单ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/orders/{id}/pay": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["订单"],
                "summary": "支付订单",
                "parameters": [{"type": "integer", "description": "订单ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/orders/{id}/cancel": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["订单"],
                "summary": "取消待支付订单",
                "parameters": [{"type": "integer", "description": "订单ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/reviews": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["评价"],
                "summary": "提交评价",
                "parameters": [{"description": "请求参数", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/rental.SubmitReviewRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/games/{id}/reviews": {
            "get": {
                "produces": ["application/json"],
                "tags": ["评价"],
                "summary": "游戏评价列表",
                "parameters": [
                    {"type": "integer", "description": "游戏ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "description": "每页数量", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/games/{id}/reviews/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["评价"],
                "summary": "游戏评价统计",
                "parameters": [{"type": "integer", "description": "游戏ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        },
        "rental.AddCartItemRequest": {
            "type": "object",
            "required": ["game_id", "rent_days"],
            "properties": {
                "game_id": {"type": "integer"},
                "rent_days": {"type": "integer", "minimum": 1}
            }
        },
        "rental.UpdateCartItemRequest": {
            "type": "object",
            "required": ["rent_days"],
            "properties": {
                "rent_days": {"type": "integer", "minimum": 1}
            }
        },
        "rental.CreateOrderRequest": {
            "type": "object",
            "required": ["address_id"],
            "properties": {
                "address_id": {"type": "integer"},
                "cart_item_ids": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "rental.SubmitReviewRequest": {
            "type": "object",
            "required": ["game_id", "rating", "content"],
            "properties": {
                "game_id": {"type": "integer"},
                "order_id": {"type": "integer"},
                "rating": {"type": "integer", "maximum": 5, "minimum": 1},
                "content": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Game Rental API",
	Description:      "游戏租赁下单、支付与评价接口",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
