package executor

import (
	"io"
	"os/exec"
)

// Executor abstracts spawning external binaries (ffmpeg, yt-dlp, the
// separation model CLI) so collaborator tests can script their behaviour.
type Executor interface {
	Command(name string, arg ...string) Command
}

type Command interface {
	SetDir(dir string)
	SetStdin(reader io.Reader)
	Output() ([]byte, error)
	CombinedOutput() ([]byte, error)
}

var _ Executor = BinaryFileExecutor{}

type BinaryFileExecutor struct{}

func (b BinaryFileExecutor) Command(name string, arg ...string) Command {
	return &BinaryFileCommand{
		cmd: exec.Command(name, arg...),
	}
}

var _ Command = &BinaryFileCommand{}

type BinaryFileCommand struct {
	cmd *exec.Cmd
}

func (b *BinaryFileCommand) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b *BinaryFileCommand) SetStdin(reader io.Reader) {
	b.cmd.Stdin = reader
}

func (b *BinaryFileCommand) Output() ([]byte, error) {
	return b.cmd.Output()
}

func (b *BinaryFileCommand) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}
