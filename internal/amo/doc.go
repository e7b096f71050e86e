// Package amo implements the two addons.mozilla.org signing protocols: the
// legacy JWT-authenticated signing API (v4) and the newer submission API
// (v5). Both clients upload a built package, poll until the server has
// processed it, and download the signed files.
package amo
