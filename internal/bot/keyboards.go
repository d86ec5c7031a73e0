package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// mainKeyboard Нижняя панель; админу добавляется ряд с /Admin
func mainKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		{tgbotapi.NewKeyboardButton("/Single"), tgbotapi.NewKeyboardButton("/List")},
	}
	if isAdmin {
		rows = append(rows, []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton("/Admin")})
	}
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard:       rows,
	}
}
