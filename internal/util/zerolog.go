package util

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ZerologLevelIds maps levels to the names accepted by the --level flag.
var ZerologLevelIds = map[zerolog.Level][]string{
	zerolog.TraceLevel: {"trace"},
	zerolog.DebugLevel: {"debug"},
	zerolog.InfoLevel:  {"info"},
	zerolog.WarnLevel:  {"warning", "warn"},
	zerolog.ErrorLevel: {"error"},
	zerolog.FatalLevel: {"fatal"},
	zerolog.PanicLevel: {"panic"},
}

// SetupZerolog points the global logger at a console writer on stdout.
func SetupZerolog(noLogTime bool, level zerolog.Level) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.ErrorFieldName = "Error"

	writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if noLogTime {
		writer.FormatTimestamp = func(any) string { return "" }
	}
	log.Logger = log.Output(writer)
	zerolog.SetGlobalLevel(level)
}
