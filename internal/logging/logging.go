// Package logging — общий логгер сервиса (zap).
// Инициализируется один раз в точке входа: logging.Initialize(...),
// дальше все пакеты получают *zap.SugaredLogger через конструкторы.
package logging

import "go.uber.org/zap"

var Logger *zap.SugaredLogger

func Initialize(debug bool) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	Logger = l.Sugar()
}
