// Package docs registers the OpenAPI document served under /api/swagger.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/search": {
            "get": {
                "tags": ["listings"],
                "summary": "Search listings near an address",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "address", "in": "query", "required": true},
                    {"type": "string", "name": "price", "in": "query"},
                    {"type": "string", "name": "action", "in": "query"},
                    {"type": "string", "name": "type", "in": "query"},
                    {"type": "string", "name": "bedrooms", "in": "query"},
                    {"type": "string", "name": "bathrooms", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "One page of listings"},
                    "400": {"description": "Invalid search"},
                    "502": {"description": "Geocoding failed"}
                }
            }
        },
        "/listings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["listings"],
                "summary": "Create a listing",
                "responses": {
                    "201": {"description": "Listing created"},
                    "400": {"description": "Invalid listing"},
                    "409": {"description": "Slug collision"}
                }
            }
        },
        "/listings/{slug}": {
            "get": {
                "tags": ["listings"],
                "summary": "Get a listing by slug",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {"200": {"description": "Listing found"}, "404": {"description": "Listing not found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["listings"],
                "summary": "Update a listing",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {"200": {"description": "Listing updated"}, "403": {"description": "Not the owner"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["listings"],
                "summary": "Delete a listing",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {"204": {"description": "Listing deleted"}, "403": {"description": "Not the owner"}}
            }
        },
        "/listings/{slug}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["listings"],
                "summary": "Change the status of a listing",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {"200": {"description": "Status changed"}}
            }
        },
        "/listings/{slug}/published": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["listings"],
                "summary": "Publish or hide a listing",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {"200": {"description": "Visibility changed"}}
            }
        },
        "/listings/sell/{page}": {
            "get": {
                "tags": ["listings"],
                "summary": "List listings for sale",
                "parameters": [{"type": "integer", "name": "page", "in": "path", "required": true}],
                "responses": {"200": {"description": "One page of listings"}}
            }
        },
        "/listings/rent/{page}": {
            "get": {
                "tags": ["listings"],
                "summary": "List listings for rent",
                "parameters": [{"type": "integer", "name": "page", "in": "path", "required": true}],
                "responses": {"200": {"description": "One page of listings"}}
            }
        },
        "/me/listings/{page}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["listings"],
                "summary": "List the caller's listings",
                "parameters": [{"type": "integer", "name": "page", "in": "path", "required": true}],
                "responses": {"200": {"description": "One page of listings"}}
            }
        },
        "/images": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["images"],
                "summary": "Upload photos",
                "consumes": ["multipart/form-data"],
                "parameters": [{"type": "file", "name": "images", "in": "formData", "required": true}],
                "responses": {"201": {"description": "Stored images"}, "400": {"description": "No or invalid images"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["images"],
                "summary": "Remove a photo",
                "responses": {"200": {"description": "Image removed"}, "403": {"description": "Not the uploader"}}
            }
        },
        "/images/archive": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["images"],
                "summary": "Upload an archive of photos",
                "consumes": ["multipart/form-data"],
                "parameters": [{"type": "file", "name": "archive", "in": "formData", "required": true}],
                "responses": {"201": {"description": "Stored images"}, "400": {"description": "Invalid archive"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Listing Service API",
	Description:      "Geospatial listing discovery and photo ingestion.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
