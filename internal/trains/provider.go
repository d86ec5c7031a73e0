// Package trains — контракт внешнего источника данных о поездах.
// Сама интеграция (NTES и т.п.) живёт за этим интерфейсом.
package trains

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("trains: status source is not configured")

// Status — последняя известная точка движения поезда.
type Status struct {
	TrainNo     string
	Date        string
	Terminated  bool
	LastStation string
	LastTime    string
	DelayMin    int
}

type Provider interface {
	RunningStatus(ctx context.Context, trainNo, date string) (*Status, error)
}

// Unconfigured — заглушка, когда источник не подключён.
type Unconfigured struct{}

func (Unconfigured) RunningStatus(context.Context, string, string) (*Status, error) {
	return nil, ErrUnavailable
}
