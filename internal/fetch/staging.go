package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ripple/internal/source"
)

// tempExtension marks in-progress downloads so stale-file cleanup can tell
// them apart from finished staging output.
const tempExtension = ".download"

// StageStream writes a stream to a uniquely named temp file in stagingDir,
// hashing the bytes as they pass through, and returns the path with the hex
// content digest. On any error the partial file is removed before returning,
// so an aborted attempt leaves nothing behind. When verifyLength is set and
// the stream declared its length, a short read is an error.
func StageStream(stagingDir string, d source.ItemDescriptor, stream *source.Stream, verifyLength bool) (string, int64, string, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", 0, "", fmt.Errorf("create staging dir: %w", err)
	}

	name := fmt.Sprintf("%s_%d%s", keyDigest(d), time.Now().UnixNano(), tempExtension)
	path := filepath.Join(stagingDir, name)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, "", fmt.Errorf("create staging file: %w", err)
	}

	hasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(stream.Body, hasher))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && verifyLength && stream.Length > 0 && written != stream.Length {
		err = fmt.Errorf("%w: short download: got %d bytes, expected %d",
			source.ErrTransient, written, stream.Length)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, "", err
	}
	return path, written, hex.EncodeToString(hasher.Sum(nil)), nil
}

func keyDigest(d source.ItemDescriptor) string {
	sum := sha256.Sum256([]byte(d.Key()))
	return hex.EncodeToString(sum[:8])
}
