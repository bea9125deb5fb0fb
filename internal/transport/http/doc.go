// Package http implements the HTTP request handlers for the review
// service. It is a thin layer between transport and business logic:
// handlers parse and validate requests, delegate to the service layer,
// and format responses.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/upload/missing",
//	    "title": "Upload Missing",
//	    "status": 400,
//	    "detail": "The scopus workbook is required",
//	    "instance": "/api/reviews"
//	}
//
// Success responses use a consistent envelope:
//
//	{"status": "success", "data": {...}}
//
// # Testing
//
// Handlers are tested with httptest against mock service dependencies.
package http
