// Package api implements the HTTP REST surface for plantpulse.
//
// New(engine, store, alerts) returns an http.Handler that serves:
//
//	GET  /api/v1/health                         — fleet counts and model version
//	GET  /api/v1/equipment                      — all registered equipment
//	POST /api/v1/equipment                      — register a unit
//	GET  /api/v1/equipment/{id}                 — single unit; 404 if unknown
//	GET  /api/v1/equipment/{id}/assessment      — on-demand health assessment
//	GET  /api/v1/equipment/{id}/readings        — recent telemetry
//	GET  /api/v1/technicians                    — staff pool, filterable
//	POST /api/v1/technicians                    — register a technician
//	GET  /api/v1/technicians/workload           — banded pool load summary
//	GET  /api/v1/technicians/{id}[/performance] — one technician / their record
//	GET  /api/v1/incidents                      — incident history, filterable
//	POST /api/v1/incidents                      — open (optionally auto-assign)
//	GET  /api/v1/incidents/summary              — aggregate statistics
//	GET  /api/v1/incidents/{id}[/audit|/assignments]
//	POST /api/v1/incidents/{id}/{assign|start|complete|cancel|escalate|reprioritize}
//	GET  /api/v1/alerts                         — currently active alerts
//	GET  /api/v1/snapshot                       — full fleet snapshot
//
// All endpoints respond with Content-Type: application/json and return
// 405 for unsupported methods. Lifecycle actions audit the caller from
// the X-Actor header. No external HTTP framework is used.
package api
