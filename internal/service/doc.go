// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and stores
// (defined in internal/store) to fulfill application features.
//
// Key components:
//
//   - UserService: registration, login by username or email, and profile lookup.
//   - TaskService: owner-scoped task listing, mutation and statistics.
//
// Services receive their dependencies through constructor injection and
// depend only on store interfaces, never on a specific database.
package service
