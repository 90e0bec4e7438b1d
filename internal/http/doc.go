// Package http mounts the docbot HTTP surface on a ServeMux.
//
// Routes:
//   - Webhook ingress: POST {webhook path} (default /webhooks/github)
//   - Health: GET /healthz
//   - Metrics: GET {metrics path} (default /metrics)
//   - Deliveries: GET /api/deliveries
//   - Governance config: GET /api/repos/{owner}/{repo}/config,
//     POST /api/repos/{owner}/{repo}/config/sync
//
// Host applications can register the API on their own mux as needed.
package http
