package models

// Project colors.
const (
	ColorBlue   = "blue"
	ColorGreen  = "green"
	ColorPurple = "purple"
	ColorOrange = "orange"
	ColorRed    = "red"
	ColorGray   = "gray"
	ColorPink   = "pink"
	ColorYellow = "yellow"
)

// DefaultProjectID is the id of the project that always exists.
const DefaultProjectID = "default"

// Colors lists every valid project color.
var Colors = []string{ColorBlue, ColorGreen, ColorPurple, ColorOrange, ColorRed, ColorGray, ColorPink, ColorYellow}

// ValidColor reports whether c is one of Colors.
func ValidColor(c string) bool {
	for _, v := range Colors {
		if v == c {
			return true
		}
	}
	return false
}

// Project groups notes under a storage area.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
	Created     string `json:"created"`
	Modified    string `json:"modified,omitempty"`
	NoteCount   int    `json:"note_count"`
}
