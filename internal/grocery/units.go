package grocery

import "strings"

// Conversion factors from a volume unit to tablespoons.
var volumeToTbsp = map[string]float64{
	"tsp":    1.0 / 3.0,
	"tbsp":   1,
	"cup":    16,
	"pint":   32,
	"quart":  64,
	"gallon": 256,
	"ml":     1 / 14.787,
	"liter":  67.628,
	"fl oz":  2,
}

// ConvertToCommonUnit collapses volume units into a shared tablespoon basis.
// Weight and count units pass through unchanged and only aggregate when the
// unit label and canonical name match exactly.
func ConvertToCommonUnit(parsed ParsedIngredient) ParsedIngredient {
	// One medium onion is roughly 1 cup diced; make countable onions
	// aggregatable with volume-measured ones.
	if strings.Contains(parsed.BaseName, "onion") && parsed.Unit == "item" {
		return ParsedIngredient{
			Quantity: parsed.Quantity * 16,
			Unit:     "tbsp",
			BaseName: parsed.BaseName,
			Original: parsed.Original,
		}
	}

	unit := strings.ToLower(parsed.Unit)
	factor, isVolume := volumeToTbsp[unit]
	if !isVolume {
		return parsed
	}

	return ParsedIngredient{
		Quantity: parsed.Quantity * factor,
		Unit:     "tbsp",
		BaseName: parsed.BaseName,
		Original: parsed.Original,
	}
}
