package export

import (
	"encoding/xml"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/SebastianChristoph/brickonizer/datastructures"
)

// exportable reports whether a finalized part makes it into the exports and
// the reason when it doesn't.
func exportable(part datastructures.PartResult) (bool, string) {
	switch {
	case part.Unknown:
		return false, "unknown"
	case part.NoMatch && part.FinalPartNumber == "":
		return false, "no match"
	case part.Skip:
		return false, "skipped"
	case part.FinalPartNumber == "":
		return false, "not reviewed"
	}
	return true, ""
}

// JSON reduces the finalized part list to the JSON parts-list projection.
// Excluded parts are reported with their index and image so the review
// workflow can point the user back at them.
func JSON(parts []datastructures.PartResult) datastructures.ExportSummary {
	summary := datastructures.ExportSummary{
		TotalParts: len(parts),
		Parts:      []datastructures.ExportEntry{},
		Excluded:   []datastructures.ExcludedPart{},
	}

	for i, part := range parts {
		ok, reason := exportable(part)
		if !ok {
			switch reason {
			case "skipped":
				summary.SkippedCount++
			case "unknown", "no match":
				summary.UnknownCount++
			}
			summary.Excluded = append(summary.Excluded, datastructures.ExcludedPart{
				Index:     i,
				ImageName: part.ImageName,
				Reason:    reason,
			})
			continue
		}
		summary.Parts = append(summary.Parts, datastructures.ExportEntry{
			PartNumber: part.FinalPartNumber,
			PartName:   part.PartName,
			Color:      part.FinalColorName,
			Quantity:   part.FinalQuantity,
			Confidence: part.Confidence,
			BBox:       part.BBox,
		})
	}
	summary.ExportedParts = len(summary.Parts)
	return summary
}

type xmlItem struct {
	ItemType string `xml:"ITEMTYPE"`
	ItemID   string `xml:"ITEMID"`
	Color    string `xml:"COLOR"`
	MinQty   int    `xml:"MINQTY"`
}

type xmlInventory struct {
	XMLName xml.Name  `xml:"INVENTORY"`
	Items   []xmlItem `xml:"ITEM"`
}

// BrickLinkXML renders the finalized parts as a BrickLink wanted-list
// inventory. Quantities of identical (part number, color) pairs are summed
// into a single ITEM, first-seen order. Parts whose color has no BrickLink
// mapping are dropped with a warning, never silently miscolored.
func BrickLinkXML(parts []datastructures.PartResult) (string, []string) {
	type key struct {
		part  string
		color string
	}

	var warnings []string
	inventory := xmlInventory{}
	position := make(map[key]int)

	for i, part := range parts {
		if ok, _ := exportable(part); !ok {
			continue
		}
		if part.FinalColorID == "" {
			warning := fmt.Sprintf("color %q has no BrickLink mapping, dropping part %s (index %d, image %s)",
				part.FinalColorName, part.FinalPartNumber, i, part.ImageName)
			log.Debug("[Export] ", warning)
			warnings = append(warnings, warning)
			continue
		}

		k := key{part: part.FinalPartNumber, color: part.FinalColorID}
		if pos, ok := position[k]; ok {
			inventory.Items[pos].MinQty += part.FinalQuantity
			continue
		}
		position[k] = len(inventory.Items)
		inventory.Items = append(inventory.Items, xmlItem{
			ItemType: "P",
			ItemID:   part.FinalPartNumber,
			Color:    part.FinalColorID,
			MinQty:   part.FinalQuantity,
		})
	}

	out, err := xml.MarshalIndent(inventory, "", "  ")
	if err != nil {
		//only possible with unmarshalable content, which the structs exclude
		log.Debug("[Export] Couldn't marshal inventory: ", err.Error())
		return "<INVENTORY></INVENTORY>", warnings
	}
	return string(out), warnings
}
