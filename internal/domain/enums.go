package domain

// Option is one entry of a select list rendered by the UI.
type Option struct {
	Value int
	Label string
}

func label(labels []string, i int) string {
	if i < 0 || i >= len(labels) {
		return "Unknown"
	}
	return labels[i]
}

func inRange(labels []string, i int) bool { return i >= 0 && i < len(labels) }

func options(labels []string) []Option {
	out := make([]Option, len(labels))
	for i, l := range labels {
		out[i] = Option{Value: i, Label: l}
	}
	return out
}
