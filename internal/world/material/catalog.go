package material

import "fmt"

// Properties физические свойства материала
type Properties struct {
	Mass            float64 `yaml:"mass" json:"mass"`
	SupportCapacity float64 `yaml:"support_capacity" json:"support_capacity"`
}

// Catalog таблица свойств, индексируемая материалом.
// Значение, не указатель: копии независимы.
type Catalog [Count]Properties

// DefaultCatalog возвращает стандартную таблицу свойств
func DefaultCatalog() Catalog {
	var c Catalog
	c[Air] = Properties{Mass: 0, SupportCapacity: 0}
	c[Wood] = Properties{Mass: 5, SupportCapacity: 100}
	c[Stone] = Properties{Mass: 20, SupportCapacity: 500}
	c[Steel] = Properties{Mass: 15, SupportCapacity: 1500}
	c[Dirt] = Properties{Mass: 10, SupportCapacity: 50}
	c[Coal] = Properties{Mass: 1, SupportCapacity: 10}
	c[Iron] = Properties{Mass: 1, SupportCapacity: 10}
	return c
}

// Props возвращает свойства материала. Для неизвестного: нулевые.
func (c Catalog) Props(m Material) Properties {
	if !m.Valid() {
		return Properties{}
	}
	return c[m]
}

// With возвращает копию каталога с переопределёнными свойствами материала.
// Воздух всегда имеет массу и прочность 0.
func (c Catalog) With(m Material, props Properties) (Catalog, error) {
	if !m.Valid() {
		return c, fmt.Errorf("неизвестный материал %d", uint8(m))
	}
	if m == Air {
		return c, fmt.Errorf("свойства воздуха не переопределяются")
	}
	if props.Mass < 0 || props.SupportCapacity < 0 {
		return c, fmt.Errorf("отрицательные свойства для %s: %+v", m, props)
	}
	c[m] = props
	return c, nil
}
