package version

// Version is overridden at build time via -ldflags "-X sigscan/version.Version=...".
var Version = "dev"
