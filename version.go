package main

// _version is overridden at build time with -ldflags "-X main._version=...".
var _version = "v0.1.0-dev"
