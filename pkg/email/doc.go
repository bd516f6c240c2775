// Package email sends transactional mail: the welcome message after a
// citizen confirms their registry account.
//
// Sender has two implementations. PostmarkSender delivers through the
// Postmark API; DevSender writes each message as an .html file plus a .json
// metadata file under a local directory, for development without
// credentials. Message bodies are templ components rendered with Render.
package email
