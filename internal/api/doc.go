// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package api serves Keyword Scout's internal ops HTTP surface. It is
read-only; cycles are started by the scheduler services only.

	GET /healthz/live                  process is up
	GET /healthz/ready                 database and messaging are reachable
	GET /metrics                       Prometheus scrape endpoint
	GET /debug/cycles/{coverage_key}   recent cycle records for an area

Every response except /metrics uses the models.APIResponse envelope. Debug
reads go to DuckDB and are rate limited per client IP.
*/
package api
