package postgres

/*
 * 'GameNumberOrder' is the committed draw sequence: a full permutation of
 * 1..90 written exactly once when the game starts and never touched
 * afterwards. Unique per (game, position) via the primary key and per
 * (game, number) via ux_game_number_order.
 */
type GameNumberOrder struct {
	GameID   string `gorm:"primaryKey;size:36;not null;uniqueIndex:ux_game_number_order,priority:1"`
	Position int    `gorm:"primaryKey;autoIncrement:false;not null"` // 0..89
	Number   int    `gorm:"not null;uniqueIndex:ux_game_number_order,priority:2"` // 1..90
}

func (GameNumberOrder) TableName() string {
	return "game_number_order"
}
