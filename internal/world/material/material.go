package material

import (
	"fmt"
	"strings"
)

// Material идентификатор материала клетки. Набор фиксирован.
type Material uint8

const (
	Air Material = iota
	Wood
	Stone
	Steel
	Dirt
	Coal
	Iron

	Count // всегда последний: количество материалов
)

var names = [Count]string{
	Air:   "Air",
	Wood:  "Wood",
	Stone: "Stone",
	Steel: "Steel",
	Dirt:  "Dirt",
	Coal:  "Coal",
	Iron:  "Iron",
}

// String возвращает имя материала
func (m Material) String() string {
	if m >= Count {
		return fmt.Sprintf("Material(%d)", uint8(m))
	}
	return names[m]
}

// Valid проверяет, что материал из известного набора
func (m Material) Valid() bool {
	return m < Count
}

// IsStructural возвращает true для любого материала, кроме воздуха
func (m Material) IsStructural() bool {
	return m != Air && m.Valid()
}

// MarshalText сериализует материал по имени (JSON/YAML ключи)
func (m Material) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("неизвестный материал %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText разбирает материал по имени
func (m *Material) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Parse разбирает имя материала без учёта регистра
func Parse(name string) (Material, error) {
	trimmed := strings.TrimSpace(name)
	for i, n := range names {
		if strings.EqualFold(n, trimmed) {
			return Material(i), nil
		}
	}
	return Air, fmt.Errorf("неизвестный материал %q", name)
}

// All возвращает все материалы в порядке объявления
func All() []Material {
	out := make([]Material, 0, Count)
	for m := Air; m < Count; m++ {
		out = append(out, m)
	}
	return out
}

// ResourceTier уровень ресурса
type ResourceTier int

const (
	Tier1 ResourceTier = iota + 1 // Поверхность (дерево)
	Tier2                         // Неглубокое подземелье (камень, уголь, железо)
)

// Tier возвращает уровень ресурса для материала
func Tier(m Material) ResourceTier {
	switch m {
	case Stone, Coal, Iron:
		return Tier2
	default:
		return Tier1
	}
}

// ConstructionMaterials материалы, из которых можно строить
var ConstructionMaterials = []Material{Wood, Stone, Steel}
