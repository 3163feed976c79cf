package qret

// Version is the release of the QRET core. Builds override it with
// -ldflags "-X github.com/aretw0/qret.Version=...".
var Version = "0.1.0-dev"
