package darn

import "fmt"

var stations = map[int]string{
	1:  "Goose Bay",
	3:  "Kapuskasing",
	5:  "Saskatoon",
	6:  "Prince George",
	64: "Rankin Inlet",
	65: "Inuvik",
	66: "Clyde River",
}

// StationName returns the display name of a SuperDARN station.
func StationName(stid int) string {
	if name, ok := stations[stid]; ok {
		return name
	}
	return fmt.Sprintf("Station %d", stid)
}
