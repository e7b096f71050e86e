// Package manifest parses and validates web extension manifest.json files.
// Validation runs against an embedded JSON schema covering the fields the
// CLI depends on; everything else in the manifest is passed through untouched.
package manifest
