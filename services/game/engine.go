package game

import (
	game_constants "Lotero/constants/game"
	"Lotero/models/postgres"
	"Lotero/services/redis"
	"Lotero/services/sse"
	"Lotero/utils/logger"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/*
 * Engine owns every state transition of a game or room. Each operation
 * runs inside one transaction that takes a write lock on the game (or
 * room) row first; that lock is the only mutual-exclusion boundary, so
 * all concurrent operations against the same game are serialized while
 * different games proceed in parallel. Events go out strictly after
 * commit, never from inside the critical section.
 */
type Engine struct {
	db          *gorm.DB
	broadcaster *sse.Broadcaster
	cache       *redis.RedisClient
}

// New builds an Engine. cache may be nil, every cache interaction is
// best-effort.
func New(db *gorm.DB, broadcaster *sse.Broadcaster, cache *redis.RedisClient) *Engine {
	return &Engine{db: db, broadcaster: broadcaster, cache: cache}
}

// Broadcaster exposes the fan-out layer for the streaming controller.
func (e *Engine) Broadcaster() *sse.Broadcaster {
	return e.broadcaster
}

// StartResult is the response payload of StartGame.
type StartResult struct {
	GameID       string    `json:"gameId"`
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"startedAt"`
	TotalNumbers int       `json:"totalNumbers"`
}

// CallResult is the response payload of CallNextNumber.
type CallResult struct {
	Number       int  `json:"number"`
	CallIndex    int  `json:"callIndex"`
	TotalNumbers int  `json:"totalNumbers"`
	IsComplete   bool `json:"isComplete"`
}

// CardAvailability is one catalog entry projected with its claim state.
type CardAvailability struct {
	ID            string `json:"id"`
	PairID        string `json:"pairId"`
	ColorTheme    string `json:"colorTheme"`
	IsActive      bool   `json:"isActive"`
	IsTaken       bool   `json:"isTaken"`
	TakenByUserID string `json:"takenByUserId,omitempty"`
}

// lockGame loads the game row FOR UPDATE, serializing every concurrent
// engine operation on the same game.
func lockGame(tx *gorm.DB, gameID string) (*postgres.Game, error) {
	var game postgres.Game
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", gameID).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("game with id %s not found", gameID)
		}
		return nil, err
	}
	return &game, nil
}

// PickCard claims a card for the user while the game is preparing.
func (e *Engine) PickCard(gameID string, userID string, cardID string) (*postgres.GameCard, error) {
	var gameCard postgres.GameCard

	err := withRetry(func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			game, err := lockGame(tx, gameID)
			if err != nil {
				return err
			}
			if game.Status != postgres.GameStatusPrepare {
				return invalidState("game is not in PREPARE status, current status: %s", game.Status)
			}

			var card postgres.Card
			err = tx.Where("id = ? AND is_active = ?", cardID, true).First(&card).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFound("card with id %s not found or not active", cardID)
				}
				return err
			}

			var taken int64
			err = tx.Model(&postgres.GameCard{}).
				Where("game_id = ? AND card_id = ?", gameID, cardID).
				Count(&taken).Error
			if err != nil {
				return err
			}
			if taken > 0 {
				return conflict("card %s is already taken", cardID)
			}

			var owned int64
			err = tx.Model(&postgres.GameCard{}).
				Where("game_id = ? AND user_id = ?", gameID, userID).
				Count(&owned).Error
			if err != nil {
				return err
			}
			if owned >= game_constants.MaxCardsPerUser {
				return conflict("you have already selected the maximum of %d cards", game_constants.MaxCardsPerUser)
			}

			gameCard = postgres.GameCard{
				GameID:     gameID,
				CardID:     cardID,
				UserID:     userID,
				SelectedAt: time.Now(),
			}
			return tx.Create(&gameCard).Error
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Card picked: game=%s card=%s user=%s", gameID, cardID, userID)
	e.broadcaster.Publish(gameID, sse.Event{
		Type: sse.EventCardPicked,
		Data: map[string]interface{}{"gameId": gameID, "cardId": cardID, "userId": userID},
	})
	return &gameCard, nil
}

// ReleaseCard gives a claimed card back. Only legal while the game is
// preparing, and only for the owning user.
func (e *Engine) ReleaseCard(gameID string, userID string, cardID string) error {
	err := withRetry(func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			game, err := lockGame(tx, gameID)
			if err != nil {
				return err
			}
			if game.Status != postgres.GameStatusPrepare {
				return invalidState("game is not in PREPARE status, current status: %s", game.Status)
			}

			var gameCard postgres.GameCard
			err = tx.Where("game_id = ? AND card_id = ?", gameID, cardID).First(&gameCard).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFound("card %s is not selected in this game", cardID)
				}
				return err
			}
			if gameCard.UserID != userID {
				return unauthorized("card %s belongs to another player", cardID)
			}

			return tx.Where("game_id = ? AND card_id = ?", gameID, cardID).
				Delete(&postgres.GameCard{}).Error
		})
	})
	if err != nil {
		return err
	}

	logger.Infof("Card released: game=%s card=%s user=%s", gameID, cardID, userID)
	e.broadcaster.Publish(gameID, sse.Event{
		Type: sse.EventCardReleased,
		Data: map[string]interface{}{"cardId": cardID},
	})
	return nil
}

// StartGame commits the shuffled draw order and moves the game to
// STARTED. The shuffle happens exactly once: every later call reads the
// persisted order, so every caller and every restart sees the same
// sequence.
func (e *Engine) StartGame(gameID string) (*StartResult, error) {
	var result StartResult

	err := withRetry(func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			game, err := lockGame(tx, gameID)
			if err != nil {
				return err
			}
			if game.Status != postgres.GameStatusPrepare {
				return invalidState("game is not in PREPARE status, current status: %s", game.Status)
			}

			var cards int64
			err = tx.Model(&postgres.GameCard{}).
				Where("game_id = ?", gameID).Count(&cards).Error
			if err != nil {
				return err
			}
			if cards < game_constants.MinCardsToStart {
				return invalidState("game needs at least %d card selected to start", game_constants.MinCardsToStart)
			}

			// Duplicate-start guard
			var existing int64
			err = tx.Model(&postgres.GameNumberOrder{}).
				Where("game_id = ?", gameID).Count(&existing).Error
			if err != nil {
				return err
			}
			if existing > 0 {
				return conflict("a number order already exists for game %s", gameID)
			}

			order := make([]postgres.GameNumberOrder, game_constants.TotalNumbers)
			for position, number := range shuffledNumbers() {
				order[position] = postgres.GameNumberOrder{
					GameID:   gameID,
					Position: position,
					Number:   number,
				}
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}

			startedAt := time.Now()
			err = tx.Model(&postgres.Game{}).Where("id = ?", gameID).
				Updates(map[string]interface{}{
					"status":     postgres.GameStatusStarted,
					"started_at": startedAt,
				}).Error
			if err != nil {
				return err
			}

			result = StartResult{
				GameID:       gameID,
				Status:       string(postgres.GameStatusStarted),
				StartedAt:    startedAt,
				TotalNumbers: game_constants.TotalNumbers,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Game started: game=%s", gameID)
	e.broadcaster.Publish(gameID, sse.Event{Type: sse.EventGameStarted, Data: result})
	return &result, nil
}

// CallNextNumber reveals the next number from the committed draw order.
// The call index is derived from the count of already-called rows, no
// separate cursor exists.
func (e *Engine) CallNextNumber(gameID string) (*CallResult, error) {
	var result CallResult

	err := withRetry(func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			game, err := lockGame(tx, gameID)
			if err != nil {
				return err
			}
			if game.Status != postgres.GameStatusStarted {
				return invalidState("game is not in STARTED status, current status: %s", game.Status)
			}

			var order []postgres.GameNumberOrder
			err = tx.Where("game_id = ?", gameID).
				Order("position ASC").Find(&order).Error
			if err != nil {
				return err
			}

			var calledCount int64
			err = tx.Model(&postgres.GameCalledNumber{}).
				Where("game_id = ?", gameID).Count(&calledCount).Error
			if err != nil {
				return err
			}
			if calledCount >= game_constants.TotalNumbers {
				return invalidState("all %d numbers have already been called", game_constants.TotalNumbers)
			}
			if int(calledCount) >= len(order) {
				return fmt.Errorf("number order for game %s is incomplete: %d entries, %d calls",
					gameID, len(order), calledCount)
			}

			next := order[calledCount]

			// Safety net: unreachable under correct locking
			var duplicate int64
			err = tx.Model(&postgres.GameCalledNumber{}).
				Where("game_id = ? AND number = ?", gameID, next.Number).
				Count(&duplicate).Error
			if err != nil {
				return err
			}
			if duplicate > 0 {
				return conflict("number %d was already called for game %s", next.Number, gameID)
			}

			called := postgres.GameCalledNumber{
				GameID:   gameID,
				Number:   next.Number,
				CalledAt: time.Now(),
			}
			if err := tx.Create(&called).Error; err != nil {
				return err
			}

			result = CallResult{
				Number:       next.Number,
				CallIndex:    int(calledCount),
				TotalNumbers: game_constants.TotalNumbers,
				IsComplete:   int(calledCount)+1 == game_constants.TotalNumbers,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Number called: game=%s number=%d index=%d", gameID, result.Number, result.CallIndex)
	e.broadcaster.Publish(gameID, sse.Event{Type: sse.EventNumberCalled, Data: result})
	if result.IsComplete {
		e.broadcaster.Publish(gameID, sse.Event{
			Type: sse.EventGameFinished,
			Data: map[string]interface{}{"gameId": gameID, "totalNumbers": game_constants.TotalNumbers},
		})
		e.dropGameKeys(gameID)
	}
	return &result, nil
}

// CreateRoom allocates a room with a fresh 6-digit join code,
// regenerating on collision.
func (e *Engine) CreateRoom(creatorID string, name string, groupID *string, gameMode string) (*postgres.Room, error) {
	if groupID != nil {
		var group postgres.Group
		err := e.db.Where("id = ?", *groupID).First(&group).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("group with id %s not found", *groupID)
			}
			return nil, err
		}
		if group.CreatorID != creatorID {
			return nil, unauthorized("you are not authorized to create a room with this group")
		}
	}

	for attempt := 0; attempt < game_constants.MaxRoomCodeAttempts; attempt++ {
		room := postgres.Room{
			Name:      name,
			CreatorID: creatorID,
			GroupID:   groupID,
			Status:    postgres.RoomStatusWaiting,
			Code:      fmt.Sprintf("%06d", rand.Intn(game_constants.RoomCodeSpace)),
			GameMode:  gameMode,
		}
		err := e.db.Create(&room).Error
		if err == nil {
			logger.Infof("Room created: room=%s code=%s creator=%s", room.ID, room.Code, creatorID)
			e.cacheRoomCode(room.Code, room.ID)
			return &room, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		logger.Infof("Room code collision on %s, regenerating (attempt %d)", room.Code, attempt+1)
	}
	return nil, conflict("could not allocate a unique room code after %d attempts", game_constants.MaxRoomCodeAttempts)
}

// lockRoomByCode resolves a join code to its room row FOR UPDATE. The
// cached code mapping is consulted first so the common case locks by
// primary key; a miss or a stale entry falls back to the code lookup,
// the rooms table stays the authority.
func (e *Engine) lockRoomByCode(tx *gorm.DB, code string) (*postgres.Room, error) {
	if cachedID := e.cachedRoomID(code); cachedID != "" {
		var room postgres.Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", cachedID).First(&room).Error
		if err == nil && room.Code == code {
			return &room, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		logger.Infof("Stale cached room code %s, falling back to table lookup", code)
	}

	var room postgres.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("no room with code %s", code)
		}
		return nil, err
	}
	return &room, nil
}

// JoinRoomByCode adds the user to a waiting room. Idempotent: joining
// twice succeeds without creating a duplicate membership.
func (e *Engine) JoinRoomByCode(code string, userID string) (string, error) {
	var roomID string

	err := withRetry(func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			room, err := e.lockRoomByCode(tx, code)
			if err != nil {
				return err
			}
			if room.Status != postgres.RoomStatusWaiting {
				return invalidState("room is not accepting joins, current status: %s", room.Status)
			}

			var member int64
			err = tx.Model(&postgres.RoomPlayer{}).
				Where("room_id = ? AND user_id = ?", room.ID, userID).
				Count(&member).Error
			if err != nil {
				return err
			}
			if member == 0 {
				player := postgres.RoomPlayer{
					RoomID:   room.ID,
					UserID:   userID,
					JoinedAt: time.Now(),
				}
				if err := tx.Create(&player).Error; err != nil {
					return err
				}
			}

			roomID = room.ID
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	logger.Infof("Player joined room: room=%s user=%s", roomID, userID)
	e.cacheRoomCode(code, roomID)
	return roomID, nil
}

// CreateGame turns a waiting room into a running game: creates the game
// in PREPARE, snapshots every room player into the game roster and
// locks the room out of further joins. Irreversible.
func (e *Engine) CreateGame(roomID string) (*postgres.Game, error) {
	var created postgres.Game
	var code string
	var roster []string

	err := withRetry(func() error {
		return e.db.Transaction(func(tx *gorm.DB) error {
			var room postgres.Room
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", roomID).First(&room).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFound("room with id %s not found", roomID)
				}
				return err
			}
			if room.Status != postgres.RoomStatusWaiting {
				return invalidState("room already has a game, current status: %s", room.Status)
			}

			var players []postgres.RoomPlayer
			if err := tx.Where("room_id = ?", roomID).Find(&players).Error; err != nil {
				return err
			}
			if len(players) == 0 {
				return invalidState("room has no players to start a game with")
			}

			created = postgres.Game{
				RoomID: &room.ID,
				Name:   room.Name,
				Status: postgres.GameStatusPrepare,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}

			gamePlayers := make([]postgres.GamePlayer, len(players))
			memberIDs := make([]string, len(players))
			for i, p := range players {
				gamePlayers[i] = postgres.GamePlayer{
					GameID:   created.ID,
					UserID:   p.UserID,
					JoinedAt: time.Now(),
				}
				memberIDs[i] = p.UserID
			}
			if err := tx.Create(&gamePlayers).Error; err != nil {
				return err
			}

			err = tx.Model(&postgres.Room{}).Where("id = ?", roomID).
				Update("status", postgres.RoomStatusInProgress).Error
			if err != nil {
				return err
			}

			code = room.Code
			roster = memberIDs
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Game created from room: room=%s game=%s", roomID, created.ID)
	e.dropRoomCode(code)
	for _, userID := range roster {
		e.broadcaster.Publish(created.ID, sse.Event{
			Type: sse.EventPlayerJoined,
			Data: map[string]interface{}{"gameId": created.ID, "userId": userID},
		})
	}
	return &created, nil
}

// CardsWithAvailability projects the active card catalog with the claim
// state inside one game. Read-only, no locking.
func (e *Engine) CardsWithAvailability(gameID string) ([]CardAvailability, error) {
	var game postgres.Game
	err := e.db.Where("id = ?", gameID).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("game with id %s not found", gameID)
		}
		return nil, err
	}

	var cards []postgres.Card
	if err := e.db.Where("is_active = ?", true).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, err
	}

	var gameCards []postgres.GameCard
	if err := e.db.Where("game_id = ?", gameID).Find(&gameCards).Error; err != nil {
		return nil, err
	}
	takenBy := make(map[string]string, len(gameCards))
	for _, gc := range gameCards {
		takenBy[gc.CardID] = gc.UserID
	}

	availability := make([]CardAvailability, len(cards))
	for i, card := range cards {
		owner, taken := takenBy[card.ID]
		availability[i] = CardAvailability{
			ID:            card.ID,
			PairID:        card.PairID,
			ColorTheme:    card.ColorTheme,
			IsActive:      card.IsActive,
			IsTaken:       taken,
			TakenByUserID: owner,
		}
	}
	return availability, nil
}

// cachedRoomID reads the code -> room id mapping, "" on a miss or any
// cache failure.
func (e *Engine) cachedRoomID(code string) string {
	if e.cache == nil {
		return ""
	}
	roomID, err := e.cache.GetRoomCode(code)
	if err != nil {
		logger.Errorf("Failed to read cached room code %s: %v", code, err)
		return ""
	}
	return roomID
}

func (e *Engine) cacheRoomCode(code string, roomID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetRoomCode(code, roomID); err != nil {
		logger.Errorf("Failed to cache room code %s: %v", code, err)
	}
}

func (e *Engine) dropRoomCode(code string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.DeleteRoomCode(code); err != nil {
		logger.Errorf("Failed to drop cached room code %s: %v", code, err)
	}
}

// dropGameKeys clears per-game diagnostic keys once the game has no
// further live state to track.
func (e *Engine) dropGameKeys(gameID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.DropGameKeys(gameID); err != nil {
		logger.Errorf("Failed to drop cached keys for game %s: %v", gameID, err)
	}
}
