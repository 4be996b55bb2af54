package telegram

import (
	"github.com/go-telegram/bot/models"
)

// ReplyKeyboard creates a one-time keyboard with all buttons in a single row.
func ReplyKeyboard(buttons []string) *models.ReplyKeyboardMarkup {
	row := make([]models.KeyboardButton, 0, len(buttons))
	for _, text := range buttons {
		row = append(row, models.KeyboardButton{Text: text})
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:        [][]models.KeyboardButton{row},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

// RemoveKeyboard hides any quick replies left from a previous prompt.
func RemoveKeyboard() *models.ReplyKeyboardRemove {
	return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
}
