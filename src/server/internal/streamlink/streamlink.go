package streamlink

import (
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/executor"
)

func NewYoutubeDLer(binPath string, executor executor.Executor) YoutubeDLer {
	return YoutubeDLer{
		binPath:  binPath,
		executor: executor,
	}
}

// YoutubeDLer resolves a page URL (e.g. a YouTube watch URL) into a direct
// audio stream URL without downloading anything. Separation then pulls time
// windows straight off the stream.
type YoutubeDLer struct {
	binPath  string
	executor executor.Executor
}

func (y YoutubeDLer) ResolveStreamURL(pageURL string) (string, error) {
	logger := log.WithField("page_url", pageURL)
	logger.Info("Resolving direct audio stream URL")

	args := []string{"-g", "-f", "bestaudio", "--no-playlist", pageURL}

	cmd := y.executor.Command(y.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "Failed to resolve stream URL: %s", string(output))
	}

	streamURL := strings.TrimSpace(string(output))
	if streamURL == "" {
		return "", errors.New("Resolver returned an empty stream URL")
	}

	// multiple formats resolve to multiple lines; the first is bestaudio
	if newline := strings.IndexByte(streamURL, '\n'); newline != -1 {
		streamURL = strings.TrimSpace(streamURL[:newline])
	}

	logger.Info("Resolved stream URL")
	return streamURL, nil
}
