package crafting

import (
	"fmt"
	"strings"
	"time"

	"github.com/annel0/vertex/internal/world/material"
)

// FacilityType тип мастерской
type FacilityType string

const (
	Furnace   FacilityType = "furnace"
	Workbench FacilityType = "workbench"
)

// ParseFacilityType разбирает тип мастерской без учёта регистра
func ParseFacilityType(s string) (FacilityType, error) {
	switch FacilityType(strings.ToLower(strings.TrimSpace(s))) {
	case Furnace:
		return Furnace, nil
	case Workbench:
		return Workbench, nil
	default:
		return "", fmt.Errorf("неизвестный тип мастерской %q", s)
	}
}

// Recipe рецепт крафта
type Recipe struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Ingredients map[material.Material]int `json:"ingredients"`
	Outputs     map[material.Material]int `json:"outputs"`
	Duration    time.Duration             `json:"duration"`
	Facility    FacilityType              `json:"facility"`
}

// DefaultRecipes стандартные рецепты: сталь в печи, доски на верстаке
func DefaultRecipes(baseTime time.Duration) map[string]Recipe {
	return map[string]Recipe{
		"steel": {
			ID:          "steel",
			Name:        "Steel",
			Ingredients: map[material.Material]int{material.Coal: 1, material.Iron: 2},
			Outputs:     map[material.Material]int{material.Steel: 1},
			Duration:    baseTime,
			Facility:    Furnace,
		},
		"wood_planks": {
			ID:          "wood_planks",
			Name:        "Wood Planks",
			Ingredients: map[material.Material]int{material.Wood: 2},
			Outputs:     map[material.Material]int{material.Wood: 3},
			Duration:    baseTime / 2,
			Facility:    Workbench,
		},
	}
}
