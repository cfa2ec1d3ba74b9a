package version

// Version is the current application version.
// Updated manually on release.
var Version = "0.4.1"
