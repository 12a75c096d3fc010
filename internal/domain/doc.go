// Package domain defines users and tasks together with their validation
// rules, default values and the status-derived completion fields. It has no
// knowledge of storage or HTTP.
package domain
