// Package auth issues and verifies the signed session tokens carried
// in the streamhive session cookie.
package auth
