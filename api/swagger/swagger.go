package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Worklane HR API",
        "description": "Attendance and leave accounting service",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Worker authentication"},
        {"name": "Attendance", "description": "Clock events and break ledger"},
        {"name": "Leave", "description": "Leave requests and approvals"},
        {"name": "Reports", "description": "Timesheet exports"}
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
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current authenticated worker",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/clock-in": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Clock in for the current day",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ClockInRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Open record already exists"}
                }
            }
        },
        "/api/v1/attendance/today": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Current record with break ledger",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "parameters": [
                    {"name": "workerId", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "leaveOnly", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{id}/break": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Start a break",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already on break or record closed"}
                }
            }
        },
        "/api/v1/attendance/{id}/resume": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Resume from the open break",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "No open break"}
                }
            }
        },
        "/api/v1/attendance/{id}/clock-out": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Close the record with an end-of-day report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ClockOutRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Open break or record already closed"}
                }
            }
        },
        "/api/v1/leaves": {
            "post": {
                "tags": ["Leave"],
                "summary": "Request leave for an inclusive date range",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LeaveRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A day in the range already has live leave"},
                    "422": {"description": "Leave cap exceeded"}
                }
            }
        },
        "/api/v1/leaves/{id}/approve": {
            "post": {
                "tags": ["Leave"],
                "summary": "Approve a pending leave day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No pending leave record"}
                }
            }
        },
        "/api/v1/leaves/{id}": {
            "delete": {
                "tags": ["Leave"],
                "summary": "Reject a pending leave day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Record is not pending"}
                }
            }
        },
        "/api/v1/leaves/bulk-approve": {
            "post": {
                "tags": ["Leave"],
                "summary": "Approve a batch of pending leave days",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkLeaveActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "A listed record is not pending"}
                }
            }
        },
        "/api/v1/leaves/bulk-reject": {
            "post": {
                "tags": ["Leave"],
                "summary": "Reject a batch of pending leave days",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkLeaveActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A listed record is not pending"}
                }
            }
        },
        "/api/v1/reports/timesheet": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export a worker timesheet as CSV or PDF",
                "parameters": [
                    {"name": "workerId", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered file"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ClockInRequest": {
            "type": "object",
            "properties": {
                "evidence": {"type": "string"}
            }
        },
        "ClockOutRequest": {
            "type": "object",
            "properties": {
                "report": {"type": "string"},
                "images": {
                    "type": "array",
                    "items": {"type": "string"}
                },
                "evidence": {"type": "string"}
            }
        },
        "LeaveRequest": {
            "type": "object",
            "properties": {
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["start_date", "end_date", "reason"]
        },
        "BulkLeaveActionRequest": {
            "type": "object",
            "properties": {
                "record_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["record_ids"]
        },
        "AttendanceRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "worker_id": {"type": "string"},
                "shift_type": {"type": "string"},
                "time_in": {"type": "string"},
                "time_out": {"type": "string"},
                "counted_time_in": {"type": "string"},
                "counted_time_out": {"type": "string"},
                "counted_seconds": {"type": "integer"},
                "meets_required": {"type": "boolean"},
                "is_overtime": {"type": "boolean"},
                "report": {"type": "string"},
                "absence_date": {"type": "string"},
                "absence_reason": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
