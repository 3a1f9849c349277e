// Package server exposes a Database over HTTP.
//
// Routes:
//
//	POST   /v1/records                 enrich and store {"text": "..."}
//	GET    /v1/records/{id}            fetch a stored record
//	DELETE /v1/records/{id}            delete a record and its embedding
//	POST   /v1/records/{id}/reprocess  rerun the pipeline over a stored record
//	POST   /v1/search                  {"query"|"vector", "threshold", "count"}
//	GET    /v1/estimate?documents=N    projected AI spend
//	GET    /healthz                    liveness
//	GET    /metrics                    Prometheus metrics
//
// Errors are JSON objects with a code and a message.
package server
