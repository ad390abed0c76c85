package model

// Color is the attachment color of a status message
type Color string

// Slack ignores its named colors ("good", "warning", "danger") on attachments
// that carry blocks, hence the explicit hex values
const (
	Unset   Color = ""
	Good    Color = "#1a7f37"
	Warning Color = "#f2c744"
	Danger  Color = "#cf222e"
)
