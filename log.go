package filespacer

import "github.com/pchchv/golog"

func logWarn(format string, v ...interface{}) {
	golog.Info("[WARN] "+format, v...)
}

func logError(format string, v ...interface{}) {
	golog.Info("[ERROR] "+format, v...)
}
