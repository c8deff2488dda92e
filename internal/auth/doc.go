// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package auth protects mutating API endpoints with bearer tokens and
role-based access control.

Tokens are HS256 JWTs carrying a subject and a role. Roles are checked
with a Casbin RBAC policy over request paths:

	viewer   read endpoints
	trainer  viewer, plus training and version registration
	admin    everything

When authentication is disabled the middleware passes every request
through unchanged.
*/
package auth
