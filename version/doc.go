// Package version reports the opflow build.
//
// Values are set at link time and fall back to the module build info:
//
//	go build -ldflags "-X github.com/kbukum/opflow/version.Version=1.2.0 \
//	    -X github.com/kbukum/opflow/version.GitCommit=$(git rev-parse --short HEAD)"
package version
