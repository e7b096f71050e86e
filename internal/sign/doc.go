// Package sign orchestrates building, identity resolution, and submission of
// a web extension to a signing backend. It reconciles the three possible id
// sources (command line, manifest, sidecar id file), enforces the selected
// backend's preconditions, dispatches to exactly one of the two signing
// protocols, and persists the effective id for future runs.
package sign
