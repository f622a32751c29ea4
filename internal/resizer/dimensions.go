package resizer

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDimensions parses a "WIDTHxHEIGHT" string such as "800x600".
// An empty string is valid and means no dimension resize.
func ParseDimensions(dims string) (int, int, error) {
	if dims == "" {
		return 0, 0, nil
	}
	parts := strings.SplitN(strings.ToLower(dims), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid dimensions %q (expected WIDTHxHEIGHT)", dims)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q", dims)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q", dims)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("dimensions must be positive in %q", dims)
	}
	return width, height, nil
}
