package argspec

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// expandAtFiles replaces every @path token with the arguments stored in
// the file. Lines starting with commentChar are skipped, "@@x" yields the
// literal "@x", and a path that does not exist is kept as is. Nested
// references are expanded once per file
func expandAtFiles(args []string, commentChar rune, tracer *Tracer) ([]string, error) {
	return expandAtFilesVisited(args, commentChar, tracer, make(map[string]bool))
}

func expandAtFilesVisited(args []string, commentChar rune, tracer *Tracer, visited map[string]bool) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) < 2 || arg[0] != '@' {
			out = append(out, arg)
			continue
		}
		path := arg[1:]
		if strings.HasPrefix(path, "@") {
			out = append(out, path)
			continue
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if visited[abs] {
			tracer.Warn("Argument file %s was already expanded, skipping", path)
			continue
		}

		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			tracer.Info("Argument file %s not found, treating '%s' as a regular argument", path, arg)
			out = append(out, arg)
			continue
		}
		if err != nil {
			return nil, &ParameterError{
				Type:    ErrorTypeParameter,
				Message: "Could not read argument file @" + path + ": " + err.Error(),
				Value:   arg,
				Cause:   err,
			}
		}

		tokens, err := splitArgFile(string(data), commentChar)
		if err != nil {
			return nil, &ParameterError{
				Type:    ErrorTypeParameter,
				Message: "Could not parse argument file @" + path + ": " + err.Error(),
				Value:   arg,
				Cause:   err,
			}
		}
		tracer.Info("Expanded argument file %s into %d arguments", path, len(tokens))

		visited[abs] = true
		nested, err := expandAtFilesVisited(tokens, commentChar, tracer, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func splitArgFile(content string, commentChar rune) ([]string, error) {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if commentChar != 0 && strings.HasPrefix(trimmed, string(commentChar)) {
			continue
		}
		kept = append(kept, line)
	}
	return shlex.Split(strings.Join(kept, "\n"))
}
