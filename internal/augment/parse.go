package augment

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	directionRe  = regexp.MustCompile(`(?i)DIRECTION:\s*(LONG|SHORT)`)
	confidenceRe = regexp.MustCompile(`(?i)CONFIDENCE:\s*(\d+)`)
)

// ParseResponse extracts the DIRECTION/CONFIDENCE pair from free text.
// Unparseable replies default to LONG/75; confidence clamps to [70,95].
func ParseResponse(text string) (Direction, int) {
	direction := DirectionLong
	if m := directionRe.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "SHORT") {
			direction = DirectionShort
		}
	}
	confidence := 75
	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			confidence = v
		}
	}
	return direction, clampConfidence(confidence)
}

func clampConfidence(v int) int {
	if v < 70 {
		return 70
	}
	if v > 95 {
		return 95
	}
	return v
}
