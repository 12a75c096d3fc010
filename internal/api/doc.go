// Package api handles incoming HTTP requests, request validation and
// response formatting. Handlers translate HTTP concerns into calls on the
// user and task services and map their errors back onto status codes.
package api
