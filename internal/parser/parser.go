// Package parser извлекает структурированный сигнал из текста сообщения.
// Формат сообщений канала:
//
//	LONG NOT/USDT
//	Entry price 0.0069-0.0075
//	🎯0.0080 🎯0.0085
//	Leverage: x10
//	STOP LOSS: 0.0060
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"signal_bot/internal/models"
)

var (
	positionRe = regexp.MustCompile(`(?i)(LONG|SHORT)`)
	symbolRe   = regexp.MustCompile(`(?i)(\w+)/USDT`)
	entryRe    = regexp.MustCompile(`(?i)price\s+([\d.]+)\s*-\s*([\d.]+)`)
	targetRe   = regexp.MustCompile(`🎯\s*([\d.]+)`)
	leverageRe = regexp.MustCompile(`(?i)Leverage\s*:\s*x(\d+)`)
	stopLossRe = regexp.MustCompile(`(?i)STOP\s*LOSS\s*:\s*([\d.]+)`)
)

// ParseSignal разбирает текст и валидирует результат. Ошибка означает,
// что сообщение не является пригодным к исполнению сигналом — такие
// в очередь не попадают.
func ParseSignal(msg string) (models.Signal, error) {
	sig := models.Signal{
		Leverage:   1,
		ReceivedAt: time.Now(),
		Raw:        msg,
	}

	if m := positionRe.FindStringSubmatch(msg); m != nil {
		sig.Position = models.Position(strings.ToUpper(m[1]))
	}

	if m := symbolRe.FindStringSubmatch(msg); m != nil {
		// "NOT/USDT" -> "NOTUSDT"
		sig.Symbol = strings.ToUpper(m[1]) + "USDT"
	}

	if m := entryRe.FindStringSubmatch(msg); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			if lo > hi {
				lo, hi = hi, lo
			}
			sig.EntryMin, sig.EntryMax = lo, hi
		}
	}

	for _, m := range targetRe.FindAllStringSubmatch(msg, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			sig.Targets = append(sig.Targets, v)
		}
	}

	if m := leverageRe.FindStringSubmatch(msg); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			sig.Leverage = v
		}
	}

	if m := stopLossRe.FindStringSubmatch(msg); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			sig.StopLoss = v
		}
	}

	if err := sig.Validate(); err != nil {
		return models.Signal{}, fmt.Errorf("parse signal: %w", err)
	}

	sig.ID = fmt.Sprintf("%s-%d", sig.Symbol, sig.ReceivedAt.UnixNano())
	return sig, nil
}

// LooksLikeSignal — дешёвый префильтр, чтобы не гонять полный разбор
// по каждому сообщению чата.
func LooksLikeSignal(msg string) bool {
	return positionRe.MatchString(msg) && symbolRe.MatchString(msg)
}
