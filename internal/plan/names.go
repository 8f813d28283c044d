package plan

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Artifact names are the cross-invocation contract: the upstream build
// publishes under BuildArtifact and this invocation fetches the same key;
// the logs artifact is published under LogsArtifact for downstream readers.
// Both are deterministic functions of their inputs. Labels are NFC
// normalized first so visually identical inputs cannot produce distinct
// keys.

// BuildArtifact returns the name of the binary artifact produced by the
// upstream build for (arch, sha): "<prefix>-<arch>-<sha>".
func BuildArtifact(prefix, arch, sha string) string {
	return fmt.Sprintf("%s-%s-%s", nfc(prefix), nfc(arch), nfc(sha))
}

// LogsArtifact returns the name the logs directory is published under:
// "<prefix>-<arch>". The commit is deliberately absent so downstream
// consumers can address the latest logs per architecture.
func LogsArtifact(prefix, arch string) string {
	return fmt.Sprintf("%s-%s", nfc(prefix), nfc(arch))
}

func nfc(s string) string {
	return norm.NFC.String(s)
}
