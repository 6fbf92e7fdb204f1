// Command resetpw provides a CLI utility for account password
// management in the StreamHive backend.
//
// It supports the following operations:
//   - reset: Reset the password for an account, looked up by email
//   - status: Check whether an account exists for an email
//
// Usage:
//
//	resetpw <command> <email>
//
// Commands:
//
//	reset   Reset the password for the account registered under the
//	        given email address. The new password is prompted for
//	        interactively and never passed on the command line.
//
//	status  Display whether an account exists for the given email.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
package main
