package separation

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/executor"
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

var _ Separator = BinarySeparator{}

func NewBinarySeparator(workingDirPath string, binPath string, executor executor.Executor) (BinarySeparator, error) {
	absWorkingDir, err := filepath.Abs(workingDirPath)
	if err != nil {
		return BinarySeparator{}, errors.Wrap(err, "Failed to convert working dir to absolute format")
	}

	if err := os.MkdirAll(absWorkingDir, os.ModePerm); err != nil {
		return BinarySeparator{}, errors.Wrap(err, "Failed to create separator working dir")
	}

	return BinarySeparator{
		workingDir: absWorkingDir,
		binPath:    binPath,
		executor:   executor,
	}, nil
}

// BinarySeparator drives a demucs-style CLI: it hands the model one WAV
// window and expects one WAV per stem in the output dir, named after the
// stem. Stems are discovered from the output file names.
type BinarySeparator struct {
	workingDir string
	binPath    string
	executor   executor.Executor
}

func (b BinarySeparator) Separate(ctx context.Context, window audio.Buffer, sampleRate int) (StemBuffers, error) {
	// separation is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "Context cancelled before separation could happen")
	}

	scratchDir, err := os.MkdirTemp(b.workingDir, "window-*")
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create scratch dir for separation")
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			log.WithError(err).Warn("Failed to remove separation scratch dir")
		}
	}()

	inputPath := filepath.Join(scratchDir, "input.wav")
	if err := os.WriteFile(inputPath, audio.EncodeWAV(window, sampleRate), 0644); err != nil {
		return nil, errors.Wrap(err, "Failed to write separation input file")
	}

	outputDir := filepath.Join(scratchDir, "stems")
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "Failed to create separation output dir")
	}

	if err := b.runModel(inputPath, outputDir); err != nil {
		return nil, err
	}

	return collectStems(outputDir)
}

func (b BinarySeparator) runModel(inputPath string, outputDir string) error {
	logger := log.WithFields(log.Fields{
		"input_path": inputPath,
		"output_dir": outputDir,
	})

	logger.Info("Running separation model command")

	args := []string{"-o", outputDir, "-d", "cpu", "--filename", "{stem}.{ext}", inputPath}

	cmd := b.executor.Command(b.binPath, args...)
	cmd.SetDir(b.workingDir)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "Error occurred while running separation model: %s", string(output))
	}

	logger.Debug(string(output))
	logger.Info("Finished separation model command")

	return nil
}

func collectStems(dir string) (StemBuffers, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading separation output directory")
	}

	if len(dirEntries) == 0 {
		return nil, errors.New("No files in separation output directory")
	}

	stems := StemBuffers{}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}

		fileName := dirEntry.Name()
		contents, err := os.ReadFile(filepath.Join(dir, fileName))
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read stem output file %s", fileName)
		}

		pcm, _, err := audio.DecodeWAV(contents)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to decode stem output file %s", fileName)
		}

		stemName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		stems[stemName] = pcm
	}

	return stems, nil
}
