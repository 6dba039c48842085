package main

import (
	"context"
	"fmt"
	"path"

	"dagger/kbconsole/internal/dagger"
)

// bucket is an S3-compatible destination for release artifacts.
type bucket struct {
	endpoint        *dagger.Secret
	name            *dagger.Secret
	accessKeyID     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// publish syncs artifacts into each prefix of the bucket in turn.
func (b bucket) publish(ctx context.Context, artifacts *dagger.Directory, prefixes ...string) error {
	name, err := b.name.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket name: %w", err)
	}
	endpoint, err := b.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket endpoint: %w", err)
	}

	cli := dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", b.accessKeyID).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", b.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/artifacts", artifacts).
		WithWorkdir("/artifacts")

	for _, prefix := range prefixes {
		dest := "s3://" + path.Join(name, prefix)
		if _, err := cli.WithExec([]string{"aws", "s3", "sync", ".", dest, "--endpoint-url", endpoint}).Sync(ctx); err != nil {
			return fmt.Errorf("uploading to %s: %w", prefix, err)
		}
	}
	return nil
}

// withChecksums adds a SHA256SUMS file covering every binary in artifacts.
func withChecksums(artifacts *dagger.Directory) *dagger.Directory {
	sums := dag.Container().
		From("debian:bookworm-slim").
		WithDirectory("/artifacts", artifacts).
		WithWorkdir("/artifacts").
		WithExec([]string{"sh", "-c", "find . -type f -name kb | sort | xargs sha256sum > SHA256SUMS"}).
		File("/artifacts/SHA256SUMS")
	return artifacts.WithFile("SHA256SUMS", sums)
}

// Release builds versioned kb binaries with checksums and publishes them
// under the version and under "latest"
func (k *KBConsole) Release(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	endpoint *dagger.Secret,
	bucketName *dagger.Secret,
	accessKeyID *dagger.Secret,
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts := withChecksums(k.BuildRelease(ctx, version, commit))
	b := bucket{endpoint: endpoint, name: bucketName, accessKeyID: accessKeyID, secretAccessKey: secretAccessKey}
	return artifacts, b.publish(ctx, artifacts, version, "latest")
}

// Nightly builds kb from commit and publishes it under "nightly"
func (k *KBConsole) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	endpoint *dagger.Secret,
	bucketName *dagger.Secret,
	accessKeyID *dagger.Secret,
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts := withChecksums(k.BuildRelease(ctx, "nightly", commit))
	b := bucket{endpoint: endpoint, name: bucketName, accessKeyID: accessKeyID, secretAccessKey: secretAccessKey}
	return artifacts, b.publish(ctx, artifacts, "nightly")
}
