// Package docs tiene el documento Swagger que sirve /swagger/*. Se mantiene a
// mano con el mismo formato que genera swag; TestDocs_CoverEveryRoute en
// internal/router falla si una ruta del router no figura acá.
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
        "/clinics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["clinics"],
                "summary": "Lista clínicas",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["clinics"],
                "summary": "Alta de clínica (ADMIN)",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/clinics/{clinicID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["clinics"],
                "summary": "Detalle de una clínica",
                "parameters": [
                    {"type": "string", "name": "clinicID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["clinics"],
                "summary": "Actualiza una clínica (PATCH parcial)",
                "parameters": [
                    {"type": "string", "name": "clinicID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["clinics"],
                "summary": "Borra una clínica",
                "parameters": [
                    {"type": "string", "name": "clinicID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/clinics/{clinicID}/reminders": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["clinics"],
                "summary": "Kill switch y límite mensual de recordatorios (ADMIN)",
                "parameters": [
                    {"type": "string", "name": "clinicID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/clinics/{clinicID}/reminder-usage": {
            "get": {
                "produces": ["application/json"],
                "tags": ["clinics"],
                "summary": "Uso de la cuota del ciclo actual",
                "parameters": [
                    {"type": "string", "name": "clinicID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/clinics/{clinicID}/reminders/reset-cycle": {
            "post": {
                "produces": ["application/json"],
                "tags": ["clinics"],
                "summary": "Reinicia el ciclo de cuota desde hoy (ADMIN)",
                "parameters": [
                    {"type": "string", "name": "clinicID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Lista usuarios",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "role", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "clinicId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Alta de usuario",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/users/{userID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Detalle de un usuario",
                "parameters": [
                    {"type": "string", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Actualiza un usuario (PATCH parcial)",
                "parameters": [
                    {"type": "string", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Borra un usuario",
                "parameters": [
                    {"type": "string", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Usuario actual y capacidades de su clínica",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/owners": {
            "get": {
                "produces": ["application/json"],
                "tags": ["owners"],
                "summary": "Lista dueños de la clínica",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "clinicId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["owners"],
                "summary": "Crea un dueño",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/owners/{ownerID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["owners"],
                "summary": "Detalle de un dueño",
                "parameters": [
                    {"type": "string", "name": "ownerID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["owners"],
                "summary": "Actualiza un dueño (PATCH parcial)",
                "parameters": [
                    {"type": "string", "name": "ownerID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["owners"],
                "summary": "Borra un dueño",
                "parameters": [
                    {"type": "string", "name": "ownerID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/owners/{ownerID}/pets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pets"],
                "summary": "Mascotas de un dueño",
                "parameters": [
                    {"type": "string", "name": "ownerID", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "species", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pets"],
                "summary": "Lista mascotas",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "species", "in": "query"},
                    {"type": "string", "name": "ownerId", "in": "query"},
                    {"type": "string", "name": "clinicId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pets"],
                "summary": "Crea una mascota",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/pets/{petID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pets"],
                "summary": "Detalle de una mascota",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pets"],
                "summary": "Actualiza una mascota (PATCH parcial)",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["pets"],
                "summary": "Borra una mascota",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/pets/{petID}/visits": {
            "get": {
                "produces": ["application/json"],
                "tags": ["visits"],
                "summary": "Visitas de una mascota",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "visitType", "in": "query"},
                    {"type": "string", "name": "dateFrom", "in": "query"},
                    {"type": "string", "name": "dateTo", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/visits": {
            "get": {
                "produces": ["application/json"],
                "tags": ["visits"],
                "summary": "Lista visitas",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "visitType", "in": "query"},
                    {"type": "string", "name": "petId", "in": "query"},
                    {"type": "string", "name": "dateFrom", "in": "query"},
                    {"type": "string", "name": "dateTo", "in": "query"},
                    {"type": "string", "name": "clinicId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["visits"],
                "summary": "Registra una visita",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/visits/{visitID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["visits"],
                "summary": "Detalle de una visita",
                "parameters": [
                    {"type": "string", "name": "visitID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["visits"],
                "summary": "Actualiza una visita (PATCH parcial)",
                "parameters": [
                    {"type": "string", "name": "visitID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["visits"],
                "summary": "Borra una visita",
                "parameters": [
                    {"type": "string", "name": "visitID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/dashboard/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Totales de la clínica",
                "parameters": [
                    {"type": "string", "name": "clinicId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
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
	Title:            "Vet Clinic API",
	Description:      "Backend multi-clínica: dueños, mascotas, visitas y cuota de recordatorios.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
