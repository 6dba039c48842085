package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/kbconsole/internal/dagger"
)

// Build and return directory of kb binaries
func (k *KBConsole) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// go-sqlite3 needs cgo, so binaries are built natively per architecture
	// rather than cross-compiled.
	goarches := []string{"amd64", "arm64"}

	outputs := dag.Directory()

	for _, goarch := range goarches {
		path := fmt.Sprintf("linux/%s/", goarch)

		build := k.goContainer(goarch).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/kb"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (k *KBConsole) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/kbconsole/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/kbconsole/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/kbconsole/pkg/utils.Buildtime=%s'", buildtime),
	}

	return k.Build(ctx, strings.Join(ldflags, " "))
}
