// Package cli provides the usergate command-line client.
//
// It wires configuration, the token store and a session.Client, then runs
// either a single command given on the command line or an interactive
// REPL. Commands:
//   - register, login, logout, refresh, me
//   - profile, passwd
//   - users [page] [search], stats, watch
//   - create, delete <id>, export [file] (admin)
//
// A 401 from the server ends the session; the CLI then asks the user to log
// in again.
package cli
