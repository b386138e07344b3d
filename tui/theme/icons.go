package theme

import "os"

// Nerd Font icons
const (
	nerdIconSuccess = "" // nf-fa-check
	nerdIconError   = "" // nf-fa-times
	nerdIconWarning = "" // nf-fa-warning
	nerdIconInfo    = "" // nf-fa-info_circle
	nerdIconHuman   = "" // nf-fa-user
	nerdIconAgent   = "" // nf-fa-robot
	nerdIconTool    = "" // nf-fa-wrench
	nerdIconFile    = "" // nf-fa-file
	nerdIconArrow   = "" // nf-fa-chevron_right
)

// ASCII fallbacks
const (
	asciiIconSuccess = "✓"
	asciiIconError   = "✗"
	asciiIconWarning = "!"
	asciiIconInfo    = "i"
	asciiIconHuman   = "@"
	asciiIconAgent   = "*"
	asciiIconTool    = "#"
	asciiIconFile    = "-"
	asciiIconArrow   = ">"
)

var (
	IconSuccess string
	IconError   string
	IconWarning string
	IconInfo    string
	IconHuman   string
	IconAgent   string
	IconTool    string
	IconFile    string
	IconArrow   string
)

// ASCII icons are the default; SWARMSTAT_ICONS=nerd switches to Nerd Font glyphs.
func init() {
	if os.Getenv("SWARMSTAT_ICONS") == "nerd" {
		IconSuccess = nerdIconSuccess
		IconError = nerdIconError
		IconWarning = nerdIconWarning
		IconInfo = nerdIconInfo
		IconHuman = nerdIconHuman
		IconAgent = nerdIconAgent
		IconTool = nerdIconTool
		IconFile = nerdIconFile
		IconArrow = nerdIconArrow
		return
	}
	IconSuccess = asciiIconSuccess
	IconError = asciiIconError
	IconWarning = asciiIconWarning
	IconInfo = asciiIconInfo
	IconHuman = asciiIconHuman
	IconAgent = asciiIconAgent
	IconTool = asciiIconTool
	IconFile = asciiIconFile
	IconArrow = asciiIconArrow
}
