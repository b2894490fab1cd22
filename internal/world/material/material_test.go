package material

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, Properties{Mass: 0, SupportCapacity: 0}, c.Props(Air), "Воздух никогда не несёт нагрузку")
	assert.Equal(t, Properties{Mass: 5, SupportCapacity: 100}, c.Props(Wood))
	assert.Equal(t, Properties{Mass: 20, SupportCapacity: 500}, c.Props(Stone))
	assert.Equal(t, Properties{Mass: 15, SupportCapacity: 1500}, c.Props(Steel))
	assert.Equal(t, Properties{Mass: 10, SupportCapacity: 50}, c.Props(Dirt))
	assert.Equal(t, Properties{Mass: 1, SupportCapacity: 10}, c.Props(Coal))
	assert.Equal(t, Properties{Mass: 1, SupportCapacity: 10}, c.Props(Iron))
	assert.Equal(t, Properties{}, c.Props(Material(200)))
}

func TestCatalogWith(t *testing.T) {
	base := DefaultCatalog()

	updated, err := base.With(Dirt, Properties{Mass: 10, SupportCapacity: 2000})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, updated.Props(Dirt).SupportCapacity)
	assert.Equal(t, 50.0, base.Props(Dirt).SupportCapacity, "Исходный каталог не должен меняться")

	_, err = base.With(Air, Properties{Mass: 1})
	assert.Error(t, err)

	_, err = base.With(Stone, Properties{Mass: -1})
	assert.Error(t, err)
}

func TestParseAndText(t *testing.T) {
	m, err := Parse("stone")
	require.NoError(t, err)
	assert.Equal(t, Stone, m)

	_, err = Parse("lava")
	assert.Error(t, err)

	data, err := json.Marshal(map[string]Material{"m": Steel})
	require.NoError(t, err)
	assert.JSONEq(t, `{"m":"Steel"}`, string(data))

	var decoded struct {
		M Material `json:"m"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"m":"iron"}`), &decoded))
	assert.Equal(t, Iron, decoded.M)
}

func TestStructuralAndTier(t *testing.T) {
	assert.False(t, Air.IsStructural())
	for _, m := range All()[1:] {
		assert.True(t, m.IsStructural(), "%s должен быть структурным", m)
	}

	assert.Equal(t, Tier1, Tier(Wood))
	assert.Equal(t, Tier2, Tier(Stone))
	assert.Equal(t, Tier2, Tier(Coal))
	assert.Equal(t, Tier2, Tier(Iron))
	assert.Equal(t, Tier1, Tier(Steel))
}
