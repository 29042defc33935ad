// Package lastresults remembers the rows printed by the most recent list so
// follow-up commands can refer to skills by number (@2, @1-3, @1,4).
package lastresults

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
)

// Prefix marks a numbered reference.
const Prefix = "@"

// maxRangeSize guards against accidental huge ranges like @1-100000.
const maxRangeSize = 1000

var (
	ErrNoLastResults    = errors.New("no last results available")
	ErrInvalidNumber    = errors.New("invalid result number")
	ErrNumberOutOfRange = errors.New("result number out of range")
)

// LastResults is the persisted output of the most recent list.
type LastResults struct {
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Results   []Entry   `json:"results"`
}

// Entry is one numbered row.
type Entry struct {
	Num      int    `json:"num"`
	ID       string `json:"id"`
	SkillKey string `json:"skill_key"`
	Path     string `json:"path"`
}

// Path returns the last-results file kept next to the state file.
func Path(statePath string) string {
	return filepath.Join(filepath.Dir(statePath), "last-results.json")
}

// Write saves lr to path.
func Write(path string, lr *LastResults) error {
	if err := atomicfile.WriteJSON(path, lr); err != nil {
		return fmt.Errorf("failed to write last results: %w", err)
	}
	return nil
}

// Read loads the results at path.
func Read(path string) (*LastResults, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoLastResults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last results: %w", err)
	}
	var lr LastResults
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("failed to parse last results: %w", err)
	}
	return &lr, nil
}

// GetByNumbers returns the entries for the given 1-indexed numbers.
func (lr *LastResults) GetByNumbers(nums []int) ([]Entry, error) {
	out := make([]Entry, 0, len(nums))
	for _, n := range nums {
		if n < 1 || n > len(lr.Results) {
			return nil, fmt.Errorf("%w: %d (valid range: 1-%d)", ErrNumberOutOfRange, n, len(lr.Results))
		}
		out = append(out, lr.Results[n-1])
	}
	return out, nil
}

// IsRef reports whether ref is a numbered reference.
func IsRef(ref string) bool {
	return strings.HasPrefix(strings.TrimSpace(ref), Prefix)
}

// ParseRef parses "@1,3-5" into [1 3 4 5].
func ParseRef(ref string) ([]int, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, Prefix) {
		return nil, fmt.Errorf("%w: %q does not start with %s", ErrInvalidNumber, ref, Prefix)
	}
	return ParseNumbers(strings.TrimPrefix(ref, Prefix))
}

// ParseNumbers parses "1", "1,3,5", "1-5" or "1,3-5,7". Duplicates are
// dropped and order is kept.
func ParseNumbers(input string) ([]int, error) {
	input = strings.ReplaceAll(strings.TrimSpace(input), " ", ",")
	if input == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidNumber)
	}

	var out []int
	seen := make(map[int]bool)
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			start, end, err := parseRange(part)
			if err != nil {
				return nil, err
			}
			for n := start; n <= end; n++ {
				add(n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a valid number", ErrInvalidNumber, part)
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: %d must be positive", ErrInvalidNumber, n)
		}
		add(n)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no valid numbers found", ErrInvalidNumber)
	}
	return out, nil
}

func parseRange(s string) (int, int, error) {
	lo, hi, _ := strings.Cut(s, "-")
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid range start %q", ErrInvalidNumber, lo)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid range end %q", ErrInvalidNumber, hi)
	}
	if start < 1 {
		return 0, 0, fmt.Errorf("%w: range start %d must be positive", ErrInvalidNumber, start)
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: range end %d must be >= start %d", ErrInvalidNumber, end, start)
	}
	if end-start+1 > maxRangeSize {
		return 0, 0, fmt.Errorf("%w: range %d-%d is too large (max %d)", ErrInvalidNumber, start, end, maxRangeSize)
	}
	return start, end, nil
}
