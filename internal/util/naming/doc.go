// Package naming sanitizes user-supplied strings against the Kubernetes
// naming grammar.
//
// Generated Application names and labels must be valid DNS-1123 values, and
// repository folder paths are stripped of anything outside the safe
// character set before being embedded in manifests.
package naming
