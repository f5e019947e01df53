// Package docs registers the OpenAPI document served at /swagger/index.html.
// Regenerate with: swag init -g cmd/leadsd/main.go -o docs
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
        "UserID": {"type": "apiKey", "name": "X-User-ID", "in": "header"}
    },
    "security": [{"UserID": []}],
    "paths": {
        "/jobs": {
            "get": {"tags": ["Jobs"], "summary": "List my jobs", "operationId": "listJobs", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Jobs"], "summary": "Post a job", "operationId": "createJob", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad request"}}}
        },
        "/jobs/matching": {
            "get": {"tags": ["Jobs"], "summary": "Jobs matching my skills and radius", "operationId": "matchingJobs", "responses": {"200": {"description": "OK"}}}
        },
        "/jobs/{id}": {
            "get": {"tags": ["Jobs"], "summary": "Get a job", "operationId": "getJob", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/jobs/{id}/close": {
            "post": {"tags": ["Jobs"], "summary": "Close a job", "operationId": "closeJob", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/jobs/{id}/interests": {
            "get": {"tags": ["Interests"], "summary": "Interests on a job", "operationId": "listJobInterests", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "304": {"description": "Not modified"}}},
            "post": {"tags": ["Interests"], "summary": "Express interest", "operationId": "createInterest", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/providers/me": {
            "get": {"tags": ["Providers"], "summary": "My provider profile", "operationId": "getProfile", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Providers"], "summary": "Create or update my provider profile", "operationId": "upsertProfile", "responses": {"200": {"description": "OK"}}}
        },
        "/interests": {
            "get": {"tags": ["Interests"], "summary": "My interests", "operationId": "listMyInterests", "responses": {"200": {"description": "OK"}}}
        },
        "/interests/{id}": {
            "get": {"tags": ["Interests"], "summary": "Get an interest", "operationId": "getInterest", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/interests/{id}/share": {
            "post": {"tags": ["Interests"], "summary": "Share contact", "operationId": "shareContact", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid state"}}}
        },
        "/interests/{id}/pay": {
            "post": {"tags": ["Interests"], "summary": "Pay for contact access", "operationId": "payForAccess", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "Idempotency-Key", "in": "header", "type": "string"}], "responses": {"200": {"description": "OK"}, "402": {"description": "Insufficient funds"}, "409": {"description": "Invalid state"}}}
        },
        "/interests/{id}/cancel": {
            "post": {"tags": ["Interests"], "summary": "Cancel an interest", "operationId": "cancelInterest", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/interests/{id}/contact": {
            "get": {"tags": ["Interests"], "summary": "Released contact", "operationId": "getContact", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/wallet": {
            "get": {"tags": ["Wallet"], "summary": "My wallet", "operationId": "getWallet", "responses": {"200": {"description": "OK"}}}
        },
        "/wallet/transactions": {
            "get": {"tags": ["Wallet"], "summary": "My wallet journal", "operationId": "listTransactions", "responses": {"200": {"description": "OK"}, "304": {"description": "Not modified"}}}
        },
        "/admin/wallets/{user}/credit": {
            "post": {"tags": ["Admin"], "summary": "Credit a wallet", "operationId": "creditWallet", "parameters": [{"name": "user", "in": "path", "required": true, "type": "string"}, {"name": "Idempotency-Key", "in": "header", "type": "string"}], "responses": {"201": {"description": "Created"}, "200": {"description": "Replayed"}}}
        },
        "/admin/sequences/{namespace}": {
            "post": {"tags": ["Admin"], "summary": "Allocate an identifier", "operationId": "allocateID", "parameters": [{"name": "namespace", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Exhausted"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Leads API",
	Description:      "Jobs, provider matching, lead lifecycle and coin wallets.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
