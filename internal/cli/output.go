package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

// stdio is the path that selects stdin or stdout.
const stdio = "-"

// readInput reads a source file, or stdin for "-".
func (c *CLI) readInput(path string) ([]byte, error) {
	if path == stdio {
		data, err := io.ReadAll(c.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tderrors.Wrap(tderrors.ErrCodeFileNotFound, err, "input %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// outputPath derives an output file next to the input: the input name with
// its extension replaced by ext. Stdin input keeps stdout.
func outputPath(input, output, ext string) string {
	if output != "" {
		return output
	}
	if input == stdio {
		return stdio
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

// sidecarPath names an extra artifact of output, e.g. "lab.drawio" with
// suffix ".grafana.json" gives "lab.grafana.json".
func sidecarPath(output, suffix string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + suffix
}

// writeOutput writes data to path, or to stdout for "-". Files are written
// to a temporary sibling and renamed into place so a failed run never
// leaves a truncated output behind.
func (c *CLI) writeOutput(path string, data []byte) error {
	if path == stdio {
		_, err := c.Stdout.Write(data)
		return err
	}
	if err := tderrors.ValidateOutputPath(path); err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
