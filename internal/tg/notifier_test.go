package tg

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/school-api/internal/models"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
	got  chan struct{}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	b.mu.Unlock()
	b.got <- struct{}{}
	return tgbotapi.Message{}, b.err
}

func TestFormatGrade(t *testing.T) {
	g := models.CourseGrade{GradeID: 7, StudentID: 2, CourseID: 2021, Grade: decimal.NewNullDecimal(decimal.RequireFromString("3.5"))}
	if s := FormatGrade(g); s != "New grade #7: student 2, course 2021: 3.50" {
		t.Fatalf("unexpected text %q", s)
	}
	g.Grade = decimal.NullDecimal{}
	if s := FormatGrade(g); s != "New grade #7: student 2, course 2021: not graded yet" {
		t.Fatalf("unexpected text %q", s)
	}
}

func TestNotifier_GradeRecorded(t *testing.T) {
	bot := &fakeBot{got: make(chan struct{}, 1), err: errors.New("Bad Request: chat not found")}
	n := NewNotifier(bot, -100, nil)

	n.GradeRecorded(context.Background(), models.CourseGrade{GradeID: 1, StudentID: 2, CourseID: 3})

	select {
	case <-bot.got:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not sent")
	}
	bot.mu.Lock()
	defer bot.mu.Unlock()
	if len(bot.sent) != 1 || bot.sent[0].ChatID != -100 {
		t.Fatalf("unexpected messages %+v", bot.sent)
	}
}

func TestIsSystemErr(t *testing.T) {
	if isSystemErr(nil) || isSystemErr(errors.New("Bad Request: message is not modified")) {
		t.Fatal("validation errors are not system errors")
	}
	if !isSystemErr(errors.New("Too Many Requests: 429")) {
		t.Fatal("rate limiting is a system error")
	}
}
