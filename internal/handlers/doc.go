// Package handlers implements the HTTP API for the StreamHive backend:
// video upload and catalog endpoints, account registration and login,
// password reset, and watch history.
package handlers
