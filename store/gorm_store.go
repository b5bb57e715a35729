package store

import (
	"errors"
	"time"

	"quizlive/models"

	"gorm.io/gorm"
)

// GormStore backs the engine with Postgres through gorm. The DB must be
// opened with TranslateError so unique-index violations surface as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateRoom(room *models.Room) error {
	return s.db.Create(room).Error
}

func (s *GormStore) SaveRoom(room *models.Room) error {
	return s.db.Save(room).Error
}

func (s *GormStore) RoomByPin(pin string) (*models.Room, error) {
	var room models.Room
	if err := s.db.Where("pin = ?", pin).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *GormStore) RoomByID(id uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.First(&room, id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *GormStore) RoomsByHost(hostID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&rooms).Error
	return rooms, err
}

func (s *GormStore) RoomPinExists(pin string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Room{}).Where("pin = ?", pin).Count(&count).Error
	return count > 0, err
}

// DeleteRoom deletes for real. Soft-deleted rows would keep occupying the
// pin and name unique indexes and block the values from ever being reused.
func (s *GormStore) DeleteRoom(room *models.Room) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var rqIDs []uint
		if err := tx.Model(&models.RoomQuestion{}).
			Where("room_id = ?", room.ID).
			Pluck("id", &rqIDs).Error; err != nil {
			return err
		}
		if len(rqIDs) > 0 {
			if err := tx.Unscoped().Where("room_question_id IN ?", rqIDs).
				Delete(&models.Answer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("room_id = ?", room.ID).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("room_id = ?", room.ID).Delete(&models.RoomQuestion{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(room).Error
	})
}

func (s *GormStore) BlockByID(id uint) (*models.Block, error) {
	var block models.Block
	if err := s.db.Preload("Questions").First(&block, id).Error; err != nil {
		return nil, translate(err)
	}
	return &block, nil
}

func (s *GormStore) ReplaceRoomQuestions(roomID uint, rqs []models.RoomQuestion) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("room_id = ?", roomID).
			Delete(&models.RoomQuestion{}).Error; err != nil {
			return err
		}
		for i := range rqs {
			if err := tx.Create(&rqs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) CountRoomQuestions(roomID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.RoomQuestion{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}

func (s *GormStore) RoomQuestionByOrder(roomID uint, orderIndex int) (*models.RoomQuestion, error) {
	var rq models.RoomQuestion
	err := s.db.Where("room_id = ? AND order_index = ?", roomID, orderIndex).
		Preload("Question").
		First(&rq).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rq, nil
}

func (s *GormStore) RoomQuestionsOrdered(roomID uint) ([]models.RoomQuestion, error) {
	var rqs []models.RoomQuestion
	err := s.db.Where("room_id = ?", roomID).
		Preload("Question").
		Order("order_index ASC").
		Find(&rqs).Error
	return rqs, err
}

func (s *GormStore) CreatePlayer(p *models.Player) error {
	if err := s.db.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

func (s *GormStore) SavePlayer(p *models.Player) error {
	return s.db.Save(p).Error
}

func (s *GormStore) PlayerByID(id uint) (*models.Player, error) {
	var player models.Player
	if err := s.db.First(&player, id).Error; err != nil {
		return nil, translate(err)
	}
	return &player, nil
}

func (s *GormStore) PlayerByRoomAndName(roomID uint, name string) (*models.Player, error) {
	var player models.Player
	err := s.db.Where("room_id = ? AND name = ?", roomID, name).First(&player).Error
	if err != nil {
		return nil, translate(err)
	}
	return &player, nil
}

func (s *GormStore) PlayersByRoom(roomID uint) ([]models.Player, error) {
	var players []models.Player
	err := s.db.Where("room_id = ?", roomID).Order("joined_at ASC").Find(&players).Error
	return players, err
}

func (s *GormStore) CountPlayers(roomID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Player{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}

func (s *GormStore) CountActivePlayers(roomID uint, seenAfter time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.Player{}).
		Where("room_id = ? AND last_seen_at > ?", roomID, seenAfter).
		Count(&count).Error
	return count, err
}

func (s *GormStore) TouchPlayer(playerID uint, seenAt time.Time) error {
	return s.db.Model(&models.Player{}).
		Where("id = ?", playerID).
		Update("last_seen_at", seenAt).Error
}

// DeletePlayer removes the row outright so the name frees up immediately
// for the rejoin-after-grace path.
func (s *GormStore) DeletePlayer(p *models.Player) error {
	return s.db.Unscoped().Delete(p).Error
}

func (s *GormStore) CreateAnswer(a *models.Answer) error {
	if err := s.db.Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAnswer
		}
		return err
	}
	return nil
}

func (s *GormStore) AnswerFor(playerID, roomQuestionID uint) (*models.Answer, error) {
	var answer models.Answer
	err := s.db.Where("player_id = ? AND room_question_id = ?", playerID, roomQuestionID).
		First(&answer).Error
	if err != nil {
		return nil, translate(err)
	}
	return &answer, nil
}

func (s *GormStore) HasAnswered(playerID, roomQuestionID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Answer{}).
		Where("player_id = ? AND room_question_id = ?", playerID, roomQuestionID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CountAnswers(roomQuestionID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Answer{}).
		Where("room_question_id = ?", roomQuestionID).
		Count(&count).Error
	return count, err
}

func (s *GormStore) AnswersForQuestion(roomQuestionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	err := s.db.Where("room_question_id = ?", roomQuestionID).
		Preload("Player").
		Find(&answers).Error
	return answers, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
