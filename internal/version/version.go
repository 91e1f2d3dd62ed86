package version

// Version is overwritten at build time through -ldflags.
var Version = "dev"
