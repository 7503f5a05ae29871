package review

import "github.com/SebastianChristoph/brickonizer/datastructures"

// Small parts the recognizer routinely struggles with; offered as a
// quick-pick so the user doesn't have to type the same numbers over and
// over.
var commonParts = []datastructures.QuickPickPart{
	{PartNumber: "3024", PartName: "Plate 1 x 1"},
	{PartNumber: "3023", PartName: "Plate 1 x 2"},
	{PartNumber: "2780", PartName: "Technic, Pin with Friction Ridges"},
	{PartNumber: "6558", PartName: "Technic, Pin Long with Friction Ridges"},
	{PartNumber: "4274", PartName: "Technic, Pin 1/2"},
	{PartNumber: "32062", PartName: "Technic, Axle 2 Notched"},
	{PartNumber: "98138", PartName: "Tile, Round 1 x 1"},
	{PartNumber: "4073", PartName: "Plate, Round 1 x 1"},
}

// QuickPick returns the parts the user identified by hand in this session,
// most recent first, followed by the static reference list.
func (s *State) QuickPick() []datastructures.QuickPickPart {
	s.mu.Lock()
	defer s.mu.Unlock()
	picks := make([]datastructures.QuickPickPart, 0, len(s.userParts)+len(commonParts))
	picks = append(picks, s.userParts...)
	picks = append(picks, commonParts...)
	return picks
}

func (s *State) RecentColors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	colors := make([]string, len(s.recentColors))
	copy(colors, s.recentColors)
	return colors
}

// callers hold s.mu
func (s *State) rememberPart(partNum, partName string) {
	for idx, p := range s.userParts {
		if p.PartNumber == partNum {
			s.userParts = append(s.userParts[:idx], s.userParts[idx+1:]...)
			break
		}
	}
	s.userParts = append([]datastructures.QuickPickPart{{PartNumber: partNum, PartName: partName}}, s.userParts...)
	if len(s.userParts) > maxUserParts {
		s.userParts = s.userParts[:maxUserParts]
	}
}

// callers hold s.mu
func (s *State) rememberColor(color string) {
	for idx, c := range s.recentColors {
		if c == color {
			s.recentColors = append(s.recentColors[:idx], s.recentColors[idx+1:]...)
			break
		}
	}
	s.recentColors = append([]string{color}, s.recentColors...)
	if len(s.recentColors) > maxRecentColors {
		s.recentColors = s.recentColors[:maxRecentColors]
	}
}
