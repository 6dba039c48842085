// KB console CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/kbconsole/internal/dagger"
)

// KBConsole is the main module for the kb console CI/CD pipeline
type KBConsole struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new KBConsole CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *KBConsole {
	return &KBConsole{
		Source: source,
	}
}

// goContainer is a Go toolchain container for linux/goarch with cgo and
// libsqlite3 available, since the history store links SQLite through cgo.
// An empty goarch uses the engine's native platform.
func (k *KBConsole) goContainer(goarch string) *dagger.Container {
	opts := dagger.ContainerOpts{}
	cache := "native"
	if goarch != "" {
		opts.Platform = dagger.Platform("linux/" + goarch)
		cache = goarch
	}
	return dag.Container(opts).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("kb-go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("kb-go-build-"+cache)).
		WithDirectory("/src", k.Source).
		WithWorkdir("/src")
}

// Test runs the Ginkgo suites with the race detector
func (k *KBConsole) Test(ctx context.Context) (string, error) {
	return k.goContainer("").
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}

// CheckTidy fails when "go mod tidy" would change go.mod or go.sum
//
// +check
func (k *KBConsole) CheckTidy(ctx context.Context) (string, error) {
	_, err := k.goContainer("").
		WithExec([]string{"sh", "-c", "cp go.mod /tmp/go.mod && cp go.sum /tmp/go.sum && go mod tidy && diff -u /tmp/go.mod go.mod && diff -u /tmp/go.sum go.sum"}).
		Sync(ctx)

	var execErr *dagger.ExecError
	if errors.As(err, &execErr) {
		return "", fmt.Errorf("module files are not tidy, run go mod tidy:\n\n%s", execErr.Stdout)
	}
	if err != nil {
		return "", err
	}
	return "go.mod and go.sum are tidy", nil
}
