package tbibm

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// SaveNextSeed writes a generator's ending seed to path as decimal text,
// so a follow-on run (bin/nextseed) can resume the same LCG stream
// exactly where this run left off (spec.md §6).
func SaveNextSeed(path string, seed uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "saving next seed to %q", path)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d\n", seed); err != nil {
		return errors.Wrapf(err, "writing seed to %q", path)
	}
	return nil
}

// LoadNextSeed reads back a seed previously written by SaveNextSeed. found
// is false when path does not exist yet, e.g. a run's first invocation.
func LoadNextSeed(path string) (seed uint32, found bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, errors.Wrapf(err, "loading next seed from %q", path)
	}
	_, err = fmt.Sscanf(strings.TrimSpace(string(b)), "%d", &seed)
	if err != nil {
		return 0, false, errors.Wrapf(err, "parsing seed in %q", path)
	}
	return seed, true, nil
}
