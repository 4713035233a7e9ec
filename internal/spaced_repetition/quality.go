package spaced_repetition

import "fmt"

// Quality is the binary outcome of a single review attempt
type Quality int

const (
	// The item was not recalled, or the user asked to see it again later
	QualityFail Quality = iota
	// The item was recalled
	QualityPass
)

func (q Quality) String() string {
	switch q {
	case QualityFail:
		return "fail"
	case QualityPass:
		return "pass"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// ParseQuality converts the textual form produced by String back to a Quality
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "fail":
		return QualityFail, nil
	case "pass":
		return QualityPass, nil
	}
	return 0, fmt.Errorf("unknown quality %q", s)
}
