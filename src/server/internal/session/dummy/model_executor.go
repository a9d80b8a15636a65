package dummy

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/executor"
)

var _ executor.Executor = &ModelExecutor{}

func NewDummyModelExecutor(stemNames ...string) *ModelExecutor {
	return &ModelExecutor{
		StemNames: stemNames,
	}
}

// ModelExecutor stands in for the separation model CLI. Instead of running a
// model, it copies the input WAV into the output dir once per stem name,
// which matches the real binary's output contract.
type ModelExecutor struct {
	StemNames   []string
	Unavailable bool
}

func (m *ModelExecutor) Command(name string, arg ...string) executor.Command {
	return &modelCommand{
		executor: m,
		args:     arg,
	}
}

type modelCommand struct {
	executor *ModelExecutor
	args     []string
}

func (m *modelCommand) SetDir(dir string) {}

func (m *modelCommand) SetStdin(reader io.Reader) {}

func (m *modelCommand) Output() ([]byte, error) {
	return m.CombinedOutput()
}

func (m *modelCommand) CombinedOutput() ([]byte, error) {
	if m.executor.Unavailable {
		return []byte("model exploded"), NetworkFailure
	}

	outputDir, inputPath, err := m.parseArgs()
	if err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read model input file")
	}

	for _, stemName := range m.executor.StemNames {
		stemPath := filepath.Join(outputDir, stemName+".wav")
		if err := os.WriteFile(stemPath, contents, 0644); err != nil {
			return nil, errors.Wrap(err, "Failed to write model stem file")
		}
	}

	return []byte("separated ok"), nil
}

func (m *modelCommand) parseArgs() (string, string, error) {
	outputDir := ""
	for i := 0; i < len(m.args)-1; i++ {
		if m.args[i] == "-o" {
			outputDir = m.args[i+1]
		}
	}

	if outputDir == "" {
		return "", "", errors.New("No output dir arg passed to the model")
	}

	if len(m.args) == 0 {
		return "", "", errors.New("No input path arg passed to the model")
	}

	inputPath := m.args[len(m.args)-1]
	return outputDir, inputPath, nil
}
