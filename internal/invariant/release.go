//go:build !probeview_debug

package invariant

const debugBuild = false
