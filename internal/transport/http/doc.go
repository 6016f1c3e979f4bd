// Package http implements the HTTP handlers of the electoral analysis API.
// Handlers are a thin layer between the chi router and the analysis service:
// they read and validate query parameters, call one view and render the result.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → AnalysisService → Loader/Cache
//	                                              ↓
//	HTTP Response ← Handler ← View report ←──────┘
//
// # Responses
//
// Every successful JSON response uses the same envelope:
//
//	{
//	    "status": "success",
//	    "data": { ... },
//	    "diagnostics": [
//	        {"kind": "SOURCE_NOT_FOUND", "source": "poverty", "message": "..."}
//	    ]
//	}
//
// A view whose inputs are missing or malformed still answers 200 with a
// partial report; the diagnostics say what was degraded. Exports carry the
// diagnostic count in the X-Diagnostics header instead.
//
// # Error Handling
//
// Rejected parameters and unknown resources follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/analysis/poverty"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// AnalysisServiceInterface.
package http
