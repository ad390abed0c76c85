package status

import "fmt"

var clockEmojis = func() []string {
	emojis := make([]string, 0, 24)
	for hour := 1; hour <= 12; hour++ {
		emojis = append(emojis,
			fmt.Sprintf(":clock%d:", hour),
			fmt.Sprintf(":clock%d30:", hour),
		)
	}
	return emojis
}()

// ClockEmoji moves the clock hand by half an hour every ten seconds
func ClockEmoji(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	return clockEmojis[int(seconds/10)%len(clockEmojis)]
}
