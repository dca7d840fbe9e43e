package tg

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/school-api/internal/models"
)

// Notifier posts newly recorded grades to a Telegram chat.
type Notifier struct {
	bot    Sender
	chatID int64
	log    *zap.Logger
}

// NewBot logs in with the token; it calls the Telegram API.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return bot, nil
}

func NewNotifier(bot Sender, chatID int64, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{bot: bot, chatID: chatID, log: log.Named("telegram")}
}

// GradeRecorded sends the announcement in the background; the request does not wait for Telegram.
func (n *Notifier) GradeRecorded(_ context.Context, g models.CourseGrade) {
	msg := tgbotapi.NewMessage(n.chatID, FormatGrade(g))
	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("panic while sending grade notification", zap.Any("panic", r))
			}
		}()
		if _, err := Send(n.bot, msg); err != nil {
			n.log.Warn("grade notification failed", zap.Int64("grade_id", g.GradeID), zap.Error(err))
		}
	}()
}

func FormatGrade(g models.CourseGrade) string {
	grade := "not graded yet"
	if g.Grade.Valid {
		grade = g.Grade.Decimal.StringFixed(2)
	}
	return fmt.Sprintf("New grade #%d: student %d, course %d: %s", g.GradeID, g.StudentID, g.CourseID, grade)
}
