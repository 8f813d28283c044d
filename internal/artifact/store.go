// Package artifact moves opaque artifact blobs between this invocation and
// its upstream/downstream peers.
//
// The producer-consumer contract is write-once by the upstream build,
// read-once by this invocation: artifacts are addressed purely by name and
// the store owns no lifecycle beyond a single transfer in each direction.
package artifact

import (
	"context"
	"fmt"
)

// PublishOptions controls which files a Publish call uploads.
type PublishOptions struct {
	// IncludeHidden also uploads dot-prefixed files and directories.
	// Without it, hidden entries are pruned from the walk.
	IncludeHidden bool

	// Patterns restricts the upload to paths matching any of the glob
	// patterns (doublestar syntax, e.g. "**/*.log"). Empty means all.
	Patterns []string
}

// Store transfers named artifacts.
//
// Fetch materializes the artifact's files under dest, creating it if
// needed. Publish uploads the files under dir as the named artifact.
// Both are single linear transfers with no retry; callers treat any error
// as fatal for the step that issued it.
type Store interface {
	Fetch(ctx context.Context, name, dest string) error
	Publish(ctx context.Context, name, dir string, opts PublishOptions) error
}

// NotFoundError reports a fetch of an artifact name the store has never
// seen. Distinguished so callers can tell a missing upstream build from a
// transfer failure.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact %q not found", e.Name)
}
