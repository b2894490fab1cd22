package eventbus

// Типы событий симуляции
const (
	TypeTilePlaced     = "tile.placed"
	TypeTileRemoved    = "tile.removed"
	TypeTileCollapsed  = "tile.collapsed"
	TypeGroundSinkhole = "ground.sinkhole"
)

// TilePayload ручная установка или удаление клетки
type TilePayload struct {
	Tick     uint64 `json:"tick"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Material string `json:"material"`
	Previous string `json:"previous,omitempty"`
}

// CollapsePayload обрушение одной клетки
type CollapsePayload struct {
	Tick     uint64  `json:"tick"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Material string  `json:"material"`
	Load     float64 `json:"load"`
	Capacity float64 `json:"capacity"`
	Reason   string  `json:"reason"`
}

// SinkholePayload провал грунта
type SinkholePayload struct {
	Tick            uint64  `json:"tick"`
	FoundationCount int     `json:"foundation_count"`
	TotalLoad       float64 `json:"total_load"`
	MaxSupport      float64 `json:"max_support"`
	Collapsed       int     `json:"collapsed"`
}
