package version

// CurrentCommit is set with -ldflags at build time
var CurrentCommit string

// BuildVersion is the local build version
const BuildVersion = "0.1.0"

var UserVersion = BuildVersion + CurrentCommit
