package scrape

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ParseRecordID returns the integer after the last "/" of a URL line.
func ParseRecordID(line string) (int, error) {
	line = strings.TrimRight(strings.TrimSpace(line), "/")
	last := line[strings.LastIndex(line, "/")+1:]
	id, err := strconv.Atoi(last)
	if err != nil {
		return 0, eris.Wrapf(err, "scrape: no record id in %q", line)
	}
	return id, nil
}

// ReadRecordIDs reads a URL list, one URL per line. Blank lines are skipped
// and lines without a trailing integer id are logged and skipped.
func ReadRecordIDs(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: open url file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var ids []int
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		id, err := ParseRecordID(line)
		if err != nil {
			zap.L().Warn("skipping url line", zap.Int("line", n), zap.Error(err))
			continue
		}
		ids = append(ids, id)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "scrape: read url file %s", path)
	}
	return ids, nil
}
