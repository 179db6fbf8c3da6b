package query

import (
	"bufio"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// readListFile reads an info-directory .list file, one absolute path
// per line.
func readListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open file manifest: " + path).
			WithCause(err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read file manifest: " + path).
			WithCause(err)
	}
	return paths, nil
}
