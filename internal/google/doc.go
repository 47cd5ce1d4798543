// Package google loads the OAuth2 client configuration and token used to reach
// Google APIs from the batch commands.
//
// The token is provisioned out of band (autopilot never runs an interactive
// consent flow) and stored as JSON in the state directory. Refreshed access
// tokens are written back to the same file.
package google
