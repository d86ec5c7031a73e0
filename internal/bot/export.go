package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/train-status-bot/internal/domain/access"
)

// handleExport выгружает все три коллекции одним xlsx-файлом (лист на
// коллекцию) и шлёт его админу документом.
func (b *Bot) handleExport(ctx context.Context, chatID int64, caller string) {
	sheets := []struct {
		name  string
		state access.State
	}{
		{"pending", access.StatePending},
		{"approved", access.StateApproved},
		{"banned", access.StateBanned},
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, sh := range sheets {
		items, err := b.engine.List(ctx, caller, sh.state)
		if err != nil {
			b.replyWorkflowError(chatID, err)
			return
		}

		sheet := sh.name
		if i == 0 {
			// первый лист у excelize уже существует — переименуем
			defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				b.reply(chatID, "⚠️ Failed to build export file")
				return
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				b.reply(chatID, "⚠️ Failed to build export file")
				return
			}
		}

		header := []interface{}{"id", "name", "handle"}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			b.reply(chatID, "⚠️ Failed to build export file")
			return
		}

		row := 2
		for _, it := range items {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				b.reply(chatID, "⚠️ Failed to build export file")
				return
			}
			excelRow := []interface{}{it.ID, it.Profile.Name, it.Profile.Handle}
			if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
				b.reply(chatID, "⚠️ Failed to build export file")
				return
			}
			row++
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		b.reply(chatID, "⚠️ Failed to write export file")
		return
	}

	fileName := fmt.Sprintf("users_%s.xlsx", time.Now().Format("20060102_150405"))
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fileName,
		Bytes: buf.Bytes(),
	})
	doc.Caption = "Access lists export: pending / approved / banned"
	b.send(doc)
}
