package bricklink

import "strconv"

// Color is one entry of the static BrickLink color table.
type Color struct {
	ID   int
	Name string
	Hex  string
}

// Colors maps BrickLink color ids to names and RGB hex values. The list is
// ordered by id and covers the colors Brickognize actually predicts.
var Colors = []Color{
	{1, "White", "#FFFFFF"},
	{2, "Tan", "#DEC69C"},
	{3, "Yellow", "#F7D117"},
	{4, "Orange", "#FF7E14"},
	{5, "Red", "#B30006"},
	{6, "Green", "#00642E"},
	{7, "Blue", "#0057A6"},
	{8, "Brown", "#532115"},
	{9, "Light Gray", "#9C9C9C"},
	{10, "Dark Gray", "#6B5A5A"},
	{11, "Black", "#212121"},
	{12, "Trans-Clear", "#EEEEEE"},
	{13, "Trans-Brown", "#635F52"},
	{14, "Trans-Dark Blue", "#00296B"},
	{15, "Trans-Light Blue", "#AEE9EF"},
	{16, "Trans-Neon Green", "#C0F500"},
	{17, "Trans-Red", "#9C0010"},
	{18, "Trans-Neon Orange", "#FF4231"},
	{19, "Trans-Yellow", "#EBF72D"},
	{20, "Trans-Green", "#217625"},
	{23, "Pink", "#FFC0CB"},
	{24, "Purple", "#A5499C"},
	{25, "Salmon", "#F45C40"},
	{26, "Light Salmon", "#FFD5CC"},
	{27, "Rust", "#B31004"},
	{28, "Nougat", "#FFAF7D"},
	{29, "Earth Orange", "#E6881D"},
	{31, "Medium Orange", "#FFA531"},
	{32, "Light Orange", "#F7AD63"},
	{33, "Light Yellow", "#FFE383"},
	{34, "Lime", "#A6CA55"},
	{35, "Light Lime", "#EBEE8F"},
	{36, "Bright Green", "#10CB31"},
	{37, "Medium Green", "#62F58E"},
	{38, "Light Green", "#A5DBB5"},
	{39, "Dark Turquoise", "#008A80"},
	{40, "Light Turquoise", "#31B5CA"},
	{41, "Aqua", "#B5D3D6"},
	{42, "Medium Blue", "#61AFFF"},
	{43, "Violet", "#3448A4"},
	{44, "Light Violet", "#C9CAE2"},
	{47, "Dark Pink", "#C87080"},
	{48, "Sand Green", "#76A290"},
	{49, "Very Light Gray", "#E8E8E8"},
	{54, "Sand Purple", "#8D7452"},
	{55, "Sand Blue", "#6A7944"},
	{58, "Sand Red", "#8C6B6B"},
	{59, "Dark Red", "#6A0E15"},
	{60, "Milky White", "#D4D3DD"},
	{62, "Light Blue", "#B4D2E3"},
	{63, "Dark Blue", "#143044"},
	{68, "Dark Orange", "#B35408"},
	{69, "Dark Tan", "#907450"},
	{71, "Magenta", "#B52952"},
	{72, "Maersk Blue", "#6BADD6"},
	{73, "Medium Violet", "#9391E4"},
	{76, "Medium Lime", "#BDC618"},
	{80, "Dark Green", "#2E5543"},
	{85, "Dark Bluish Gray", "#595D60"},
	{86, "Light Bluish Gray", "#AFB5C7"},
	{87, "Sky Blue", "#7DBFDD"},
	{88, "Reddish Brown", "#89351D"},
	{89, "Dark Purple", "#5F2683"},
	{90, "Light Nougat", "#FECCB0"},
	{96, "Very Light Orange", "#FFCB78"},
	{97, "Blue-Violet", "#506CEF"},
	{99, "Very Light Bluish Gray", "#E4E8E8"},
	{103, "Bright Light Yellow", "#F3E055"},
	{104, "Bright Pink", "#F785B1"},
	{105, "Bright Light Blue", "#9FC3E9"},
	{110, "Bright Light Orange", "#F7BA30"},
	{120, "Dark Brown", "#330000"},
	{150, "Medium Nougat", "#E3A05B"},
	{152, "Light Aqua", "#CCE2DD"},
	{153, "Dark Azure", "#078BC9"},
	{154, "Lavender", "#B18CBF"},
	{155, "Olive Green", "#77774E"},
	{156, "Medium Azure", "#42C0FB"},
	{157, "Medium Lavender", "#885E9E"},
	{158, "Yellowish Green", "#DFEEA5"},
	{161, "Dark Yellow", "#DD982E"},
	{220, "Coral", "#FF698F"},
	{225, "Dark Nougat", "#AD6140"},
	{240, "Medium Brown", "#774125"},
	{241, "Medium Tan", "#CCA373"},
	{242, "Dark Olive Green", "#5D5C36"},
}

var nameToID = func() map[string]int {
	m := make(map[string]int, len(Colors))
	for _, c := range Colors {
		m[c.Name] = c.ID
	}
	return m
}()

var idToName = func() map[int]string {
	m := make(map[int]string, len(Colors))
	for _, c := range Colors {
		m[c.ID] = c.Name
	}
	return m
}()

// NameToID returns the BrickLink color id for a color name.
func NameToID(name string) (int, bool) {
	id, ok := nameToID[name]
	return id, ok
}

// NameByID returns the color name for a BrickLink color id.
func NameByID(id int) (string, bool) {
	name, ok := idToName[id]
	return name, ok
}

// Resolve accepts either a numeric BrickLink color id or a color name and
// returns the canonical id/name pair. ok is false when the value matches
// neither.
func Resolve(value string) (int, string, bool) {
	if id, err := strconv.Atoi(value); err == nil {
		if name, ok := idToName[id]; ok {
			return id, name, true
		}
		return 0, "", false
	}
	if id, ok := nameToID[value]; ok {
		return id, value, true
	}
	return 0, "", false
}
