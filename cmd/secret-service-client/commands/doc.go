// Package commands defines the secret-service-client CLI.
//
// Commands
//
//   - store        Store a secret read from stdin under lookup attributes
//   - lookup       Print the secret matching the attributes
//   - search       List items matching the attributes
//   - clear        Delete items matching the attributes
//   - lock         Lock the configured collection
//   - unlock       Unlock the configured collection
//   - collections  List collections
//   - import       Copy entries from a gopass-secret-service store
//
// Attributes are given as key value pairs: `lookup service mail user bob`.
// The collection is chosen by alias with --collection (default "default").
package commands
