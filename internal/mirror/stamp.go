package mirror

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// stampFile records which clone URL a mirror was built from.
const stampFile = "traduttore-origin"

func originDigest(cloneURL string) string {
	sum := blake3.Sum256([]byte(cloneURL))
	return hex.EncodeToString(sum[:])
}

func writeStamp(dir, cloneURL string) error {
	return os.WriteFile(filepath.Join(dir, ".git", stampFile), []byte(originDigest(cloneURL)+"\n"), 0o644)
}

// stampMatches reports whether dir was cloned from cloneURL.
func stampMatches(dir, cloneURL string) bool {
	b, err := os.ReadFile(filepath.Join(dir, ".git", stampFile))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(b)) == originDigest(cloneURL)
}
