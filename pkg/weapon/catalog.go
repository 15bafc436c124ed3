package weapon

import "fmt"

// Handheld is a banned weapon recognized from the first slot name.
type Handheld struct {
	Label string   `yaml:"label"`
	Names []string `yaml:"names"`
}

// Vehicle is a banned vehicle recognized from its seat weapon names.
type Vehicle struct {
	Label          string   `yaml:"label"`
	PrimaryNames   []string `yaml:"primary_names"`
	SecondaryNames []string `yaml:"secondary_names"`
}

// Catalog lists the display-name variants of everything the server bans.
type Catalog struct {
	SMG08       Handheld `yaml:"smg08"`
	HeavyBomber Vehicle  `yaml:"heavy_bomber"`
	// LMG is the icon class the classifier reports for the mortar truck.
	LMG Vehicle `yaml:"mortar_truck"`
}

// DefaultCatalog returns the stock catalog. Layout files override it field by field.
func DefaultCatalog() Catalog {
	return Catalog{
		SMG08: Handheld{
			Label: "SMG08/18",
			Names: []string{"MG 08/18", "MG08/18", "SMG 08/18"},
		},
		HeavyBomber: Vehicle{
			Label:          "heavy bomber",
			PrimaryNames:   []string{"Caproni Ca.5", "Gotha G.IV", "Handley Page O/400"},
			SecondaryNames: []string{"Bomb Release", "Heavy Bombs", "Fire Bombs"},
		},
		LMG: Vehicle{
			Label:          "mortar truck",
			PrimaryNames:   []string{"Lancia 1Z", "Mortar Truck"},
			SecondaryNames: []string{"Mortar", "Airburst Mortar", "HE Mortar"},
		},
	}
}

// Validate checks that every entry can actually match something.
func (c Catalog) Validate() error {
	if c.SMG08.Label == "" || len(c.SMG08.Names) == 0 {
		return fmt.Errorf("smg08: %w", ErrEmptyCatalog)
	}
	vehicles := map[string]Vehicle{"heavy_bomber": c.HeavyBomber, "mortar_truck": c.LMG}
	for key, v := range vehicles {
		if v.Label == "" || len(v.PrimaryNames) == 0 || len(v.SecondaryNames) == 0 {
			return fmt.Errorf("%s: %w", key, ErrEmptyCatalog)
		}
	}
	return nil
}
