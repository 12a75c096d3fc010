// Package redis provides the Redis-backed pieces of the API: a sliding
// window rate limiter and a cache for per-user task statistics.
package redis
